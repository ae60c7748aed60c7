package journal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/AliZeynalov/ai-router-facade/internal/journal"
	"github.com/AliZeynalov/ai-router-facade/internal/models"
)

func newTestStore(t *testing.T, maxSize int64, maxAge time.Duration) (*journal.Store, journal.Options) {
	t.Helper()
	dir := t.TempDir()
	opts := journal.Options{
		Enabled:           true,
		FilePath:          filepath.Join(dir, "journal.json"),
		MaxFileSizeBytes:  maxSize,
		MaxFileAge:        maxAge,
		RolloverDirectory: filepath.Join(dir, "rollover"),
	}
	require.NoError(t, opts.Validate())
	s := journal.New(opts)
	require.NoError(t, s.EnsureFile())
	return s, opts
}

func TestEnsureFileCreatesEmptyDocument(t *testing.T) {
	s, _ := newTestStore(t, 10*1024*1024, 24*time.Hour)

	var doc models.JournalDocument
	ok, err := journal.Load(s, &doc)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWriteThenReadRoundTrips(t *testing.T) {
	s, _ := newTestStore(t, 10*1024*1024, 24*time.Hour)

	doc := models.JournalDocument{
		Responses: []models.JournalEntry{
			{ID: "1", Prompt: "hi", Success: true, Provider: "p1", Cost: decimal.NewFromFloat(0.001)},
		},
	}
	doc.Recompute()
	require.NoError(t, journal.Write(s, doc))

	var loaded models.JournalDocument
	ok, err := journal.Read(s, &loaded)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, loaded.TotalRequests)
	require.True(t, loaded.TotalCost.Equal(decimal.NewFromFloat(0.001)))
}

func TestDisabledStoreIsNoOp(t *testing.T) {
	opts := journal.Options{Enabled: false}
	s := journal.New(opts)
	require.NoError(t, s.EnsureFile())

	var doc models.JournalDocument
	ok, err := journal.Load(s, &doc)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, journal.Write(s, models.JournalDocument{}))
}

// TestForceRolloverIdempotence exercises spec.md §8's rollover law:
// calling ForceRollover twice produces a new empty document and
// exactly two archive files.
func TestForceRolloverIdempotence(t *testing.T) {
	s, opts := newTestStore(t, 10*1024*1024, 24*time.Hour)

	doc := models.JournalDocument{Responses: []models.JournalEntry{{ID: "1"}}}
	require.NoError(t, journal.Write(s, doc))

	require.NoError(t, s.ForceRollover())
	require.NoError(t, s.ForceRollover())

	var empty models.JournalDocument
	ok, err := journal.Load(s, &empty)
	require.NoError(t, err)
	require.False(t, ok)

	entries, err := os.ReadDir(opts.RolloverDirectory)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestRolloverTriggeredBySize(t *testing.T) {
	s, opts := newTestStore(t, 1, 24*time.Hour)

	doc := models.JournalDocument{Responses: []models.JournalEntry{{ID: "1", Prompt: "hello world"}}}
	require.NoError(t, journal.Write(s, doc))

	entries, err := os.ReadDir(opts.RolloverDirectory)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 1)
}

func TestRolloverTriggeredByAge(t *testing.T) {
	s, opts := newTestStore(t, 10*1024*1024, 1*time.Nanosecond)

	require.NoError(t, journal.Write(s, models.JournalDocument{Responses: []models.JournalEntry{{ID: "1"}}}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, journal.Write(s, models.JournalDocument{Responses: []models.JournalEntry{{ID: "2"}}}))

	entries, err := os.ReadDir(opts.RolloverDirectory)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 1)
}
