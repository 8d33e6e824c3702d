package badger

// Key prefixes for different data types
const (
	dishRecordPrefix      = "dishrec"
	dishNameCountryPrefix = "dishnc"
	dishCountryPrefix     = "dishcty"
)

// Composite keys separate components with a NUL byte: dish names and
// countries may contain any printable character, including the prefix
// separator.
const keySep = byte(0)

// makeDishKey generates the primary key for a dish by id.
func makeDishKey(id string) []byte {
	return []byte(dishRecordPrefix + ":" + id)
}

// makeNameCountryKey generates the exact-match index key.
// Format: prefix:country\x00name -> id
func makeNameCountryKey(name, country string) []byte {
	prefix := dishNameCountryPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(country)+1+len(name))
	buf = append(buf, prefix...)
	buf = append(buf, country...)
	buf = append(buf, keySep)
	buf = append(buf, name...)
	return buf
}

// makeCountryKey generates the country index key for one dish.
// Format: prefix:country\x00id -> name
func makeCountryKey(country, id string) []byte {
	prefix := dishCountryPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(country)+1+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, country...)
	buf = append(buf, keySep)
	buf = append(buf, id...)
	return buf
}

// makePartialCountryKey generates the iteration prefix for all dishes of
// one country.
func makePartialCountryKey(country string) []byte {
	prefix := dishCountryPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(country)+1)
	buf = append(buf, prefix...)
	buf = append(buf, country...)
	buf = append(buf, keySep)
	return buf
}
