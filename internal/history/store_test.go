package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndLast(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, found, err := store.Last(ctx, "ecss/SUMMARY.md")
	require.NoError(t, err)
	assert.False(t, found)

	first := Run{
		ID:          uuid.NewString(),
		Output:      "ecss/SUMMARY.md",
		Fingerprint: "aaa",
		Entries:     12,
		Duration:    35 * time.Millisecond,
		Created:     time.Unix(1000, 0),
	}
	second := Run{
		ID:          uuid.NewString(),
		Output:      "ecss/SUMMARY.md",
		Fingerprint: "bbb",
		Entries:     13,
		Duration:    40 * time.Millisecond,
		Created:     time.Unix(2000, 0),
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	last, found, err := store.Last(ctx, "ecss/SUMMARY.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, "bbb", last.Fingerprint)
	assert.Equal(t, 13, last.Entries)
	assert.Equal(t, 40*time.Millisecond, last.Duration)
	assert.Equal(t, time.Unix(2000, 0).Unix(), last.Created.Unix())
}

func TestLastIsScopedToOutput(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Run{ID: "r1", Output: "ecss/SUMMARY.md", Fingerprint: "x", Created: time.Unix(1, 0)}))
	require.NoError(t, store.Record(ctx, Run{ID: "r2", Output: "api/nav.md", Fingerprint: "y", Created: time.Unix(2, 0)}))

	last, found, err := store.Last(ctx, "ecss/SUMMARY.md")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "r1", last.ID)
}

func TestList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Record(ctx, Run{
			ID:      uuid.NewString(),
			Output:  "ecss/SUMMARY.md",
			Entries: i,
			Created: time.Unix(int64(i*100), 0),
		}))
	}

	runs, err := store.List(ctx, "ecss/SUMMARY.md", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, 5, runs[0].Entries)
	assert.Equal(t, 4, runs[1].Entries)
	assert.Equal(t, 3, runs[2].Entries)

	all, err := store.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := Run{ID: "same", Output: "ecss/SUMMARY.md", Created: time.Unix(1, 0)}
	require.NoError(t, store.Record(ctx, run))
	assert.Error(t, store.Record(ctx, run))
}
