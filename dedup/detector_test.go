package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/storage"
	storebadger "github.com/poiesic/dishpipe/storage/badger"
)

func newTestRepo(t *testing.T) storage.DishRepository {
	t.Helper()
	repo, backend, err := storebadger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func dish(id, name, country string) *core.Dish {
	return &core.Dish{Id: id, Name: name, Country: country}
}

func TestDetectorExactMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, dish("d-1", "Margherita Pizza", "Italy")))

	det := NewDetector(repo)
	match, err := det.Check(ctx, dish("d-2", "Margherita Pizza", "Italy"))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, MatchExact, match.Kind)
	assert.Equal(t, "Margherita Pizza", match.MatchedName)
}

func TestDetectorFuzzyMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, dish("d-1", "Chicken Tikka Masala", "India")))

	det := NewDetector(repo)
	match, err := det.Check(ctx, dish("d-2", "Chicken Tika Masala", "India"))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, MatchFuzzy, match.Kind)
	assert.Equal(t, "Chicken Tikka Masala", match.MatchedName)
	assert.Greater(t, match.Similarity, Threshold)
}

func TestDetectorCountryScoped(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, dish("d-1", "Chicken Tikka Masala", "India")))

	// The same name in another country does not match either tier.
	det := NewDetector(repo)
	match, err := det.Check(ctx, dish("d-2", "Chicken Tikka Masala", "United Kingdom"))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestDetectorNoMatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, dish("d-1", "Chicken Tikka Masala", "India")))

	det := NewDetector(repo)
	match, err := det.Check(ctx, dish("d-2", "Vegetable Biryani", "India"))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestDetectorInRunMemory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	det := NewDetector(repo)

	// Nothing persisted yet, but a near-identical name was admitted
	// earlier in the run.
	det.Remember(dish("d-1", "Chicken Tikka Masala", "India"))

	match, err := det.Check(ctx, dish("d-2", "Chicken Tika Masala", "India"))
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, MatchFuzzy, match.Kind)

	det.Reset()
	match, err = det.Check(ctx, dish("d-3", "Chicken Tika Masala", "India"))
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestDetectorNilDish(t *testing.T) {
	det := NewDetector(newTestRepo(t))
	_, err := det.Check(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrNilDish)
}

func TestReportAndCleanup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []*core.Dish{
		dish("d-1", "Chicken Tikka Masala", "India"),
		dish("d-2", "Chicken Tika Masala", "India"),
		dish("d-3", "Vegetable Biryani", "India"),
		dish("d-4", "Ratatouille", "France"),
	}
	for _, d := range seed {
		require.NoError(t, repo.Insert(ctx, d))
	}

	pairs, err := Report(ctx, repo)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "india", pairs[0].Country)
	assert.Greater(t, pairs[0].Similarity, Threshold)

	// Report flags near-duplicates but Cleanup only removes exact ones,
	// so nothing is deleted yet.
	removed, err := Cleanup(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	// An exact duplicate differing only in case and padding is swept.
	require.NoError(t, repo.Insert(ctx, dish("d-5", "  ratatouille ", "France")))
	removed, err = Cleanup(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCleanupSweepsAcrossCountries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// The sweep groups by name alone, so the same dish filed under two
	// countries still collapses to one record.
	require.NoError(t, repo.Insert(ctx, dish("d-1", "Margherita Pizza", "Italy")))
	require.NoError(t, repo.Insert(ctx, dish("d-2", "Margherita Pizza", "France")))

	removed, err := Cleanup(ctx, repo)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
