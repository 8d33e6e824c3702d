// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package dedup detects duplicate dishes before upload and offers offline
// tools for finding and cleaning duplicates already in the store.
//
// Two tiers run in order. The exact tier is a name+country index lookup.
// The fuzzy tier compares the candidate name against every stored name in
// the same country using Sorensen-Dice bigram similarity and flags
// anything above the threshold.
package dedup

import "strings"

// Threshold above which two names are considered the same dish.
const Threshold = 0.85

// Similarity computes the Sorensen-Dice coefficient over character
// bigrams of the two strings. Whitespace is stripped and comparison is
// case-insensitive. Two empty strings are identical (1.0); one empty
// string matches nothing (0.0).
func Similarity(a, b string) float64 {
	ra := []rune(normalize(a))
	rb := []rune(normalize(b))

	if string(ra) == string(rb) {
		return 1.0
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0.0
	}

	bigrams := make(map[string]int)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[string(ra[i:i+2])]++
	}

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := string(rb[i : i+2])
		if bigrams[bg] > 0 {
			bigrams[bg]--
			intersection++
		}
	}

	return 2.0 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
