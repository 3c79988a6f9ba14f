package storage

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"pngme/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T, dbPath string) *ProviderSQL {
	t.Helper()
	provider, err := NewProviderSQL(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err, "failed to open ledger")
	t.Cleanup(func() { provider.Close() })
	return provider
}

func TestLedger(t *testing.T) {
	provider := newTestLedger(t, ":memory:")
	// empty ledger
	records, err := provider.ListAllRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
	cases := []*models.Record{
		models.NewRecord("a.png", models.OpEncode, "ruSt", 5, 0xdeadbeef),
		models.NewRecord("a.png", models.OpRemove, "ruSt", 5, 0xdeadbeef),
		models.NewRecord("b.png", models.OpEncode, "tEXt", 12, 42),
	}
	for i, rec := range cases {
		t.Run(fmt.Sprintf("run_%d", i), func(t *testing.T) {
			got, err := provider.AddRecord(rec)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, rec.Op, got.Op)
			assert.Equal(t, rec.CRC, got.CRC)
			assert.Equal(t, rec.Size, got.Size)
		})
	}
	forA, err := provider.ListRecords("a.png")
	require.NoError(t, err)
	require.Len(t, forA, 2)
	assert.Equal(t, models.OpEncode, forA[0].Op)
	assert.Equal(t, models.OpRemove, forA[1].Op)

	all, err := provider.ListAllRecords()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := provider.RemoveRecords("a.png")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	forA, err = provider.ListRecords("a.png")
	require.NoError(t, err)
	assert.Empty(t, forA)
}

func TestLedgerDuplicateID(t *testing.T) {
	provider := newTestLedger(t, ":memory:")
	rec := models.NewRecord("a.png", models.OpEncode, "ruSt", 1, 1)
	_, err := provider.AddRecord(rec)
	require.NoError(t, err)
	_, err = provider.AddRecord(rec)
	assert.Error(t, err)
}

func TestLedgerPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	first, err := NewProviderSQL(dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	_, err = first.AddRecord(models.NewRecord("c.png", models.OpEncode, "ruSt", 3, 7))
	require.NoError(t, err)
	require.NoError(t, first.Close())
	// migrations are idempotent on reopen
	second := newTestLedger(t, dbPath)
	records, err := second.ListRecords("c.png")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ruSt", records[0].ChunkType)
}
