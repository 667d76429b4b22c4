package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "operations.db")))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntry(seq uint64, tag op.Tag) *Entry {
	var signer record.Address
	signer[0] = byte(seq)
	return &Entry{
		Seq:       seq,
		Tag:       tag,
		Result:    op.Success,
		Signer:    signer,
		Metadata:  []byte{0xa0},
		AppliedAt: time.Unix(1_700_000_000+int64(seq), 0).UTC(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	want := testEntry(1, op.TagSwap)
	require.NoError(t, store.Record(ctx, want))

	got, err := store.BySequence(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreNotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.BySequence(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDuplicateSequence(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, testEntry(7, op.TagTransfer)))
	assert.Error(t, store.Record(ctx, testEntry(7, op.TagTransfer)))
}

func TestStoreRange(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, store.Record(ctx, testEntry(seq, op.TagAddLiquidity)))
	}

	entries, err := store.Range(ctx, 2, 4, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(2), entries[0].Seq)
	assert.Equal(t, uint64(4), entries[2].Seq)

	entries, err = store.Range(ctx, 1, 5, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint64(1), entries[0].Seq)

	entries, err = store.Range(ctx, 10, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreByTagAndLatest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	require.NoError(t, store.Record(ctx, testEntry(1, op.TagSwap)))
	require.NoError(t, store.Record(ctx, testEntry(2, op.TagTransfer)))
	require.NoError(t, store.Record(ctx, testEntry(3, op.TagSwap)))

	swaps, err := store.ByTag(ctx, op.TagSwap, 0)
	require.NoError(t, err)
	require.Len(t, swaps, 2)
	assert.Equal(t, uint64(3), swaps[0].Seq)
	assert.Equal(t, uint64(1), swaps[1].Seq)

	latest, err := store.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, uint64(3), latest[0].Seq)
	assert.Equal(t, uint64(2), latest[1].Seq)
}

func TestStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operations.db")
	ctx := context.Background()

	store, err := Open(DefaultConfig(path))
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, testEntry(42, op.TagClosePool)))
	require.NoError(t, store.Close())

	store, err = Open(DefaultConfig(path))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.BySequence(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, op.TagClosePool, got.Tag)
}

func TestStoreClosed(t *testing.T) {
	store := openStore(t)
	require.NoError(t, store.Close())
	ctx := context.Background()

	assert.ErrorIs(t, store.Record(ctx, testEntry(1, op.TagSwap)), ErrClosed)
	_, err := store.BySequence(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Latest(ctx, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = store.Count(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Driver: "sqlite3", DSN: "x.db"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverSQLite, cfg.Driver)

	cfg = Config{Driver: "postgresql", DSN: "dbname=swapd"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DriverPostgres, cfg.Driver)

	cfg = Config{Driver: "oracle", DSN: "x"}
	assert.Error(t, cfg.Validate())

	cfg = Config{Driver: "sqlite"}
	assert.Error(t, cfg.Validate())
}

func TestMetadataCodec(t *testing.T) {
	reclaim := record.Address{9}
	meta := &op.Metadata{
		Changes: []op.Change{
			{Action: op.ChangeCreated, Key: record.Address{1}, Kind: record.KindPool, After: []byte{1, 2}},
			{Action: op.ChangeDeleted, Key: record.Address{2}, Kind: record.KindLPTAccount, Before: []byte{3}},
		},
		Reclaim: &reclaim,
	}

	data, err := EncodeMetadata(meta)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := DecodeMetadata(data)
	require.NoError(t, err)
	assert.Equal(t, meta, got)

	data, err = EncodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	got, err = DecodeMetadata(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestNewEntry(t *testing.T) {
	signer := record.Address{5}
	sub := op.Submission{
		Accounts: []op.AccountRef{
			{Key: record.Address{4}},
			{Key: signer, Signer: true},
		},
	}
	result := op.ApplyResult{
		Result:   op.Success,
		Applied:  true,
		Tag:      op.TagSwap,
		Seq:      11,
		Metadata: &op.Metadata{},
	}

	entry, err := NewEntry(sub, result)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), entry.Seq)
	assert.Equal(t, op.TagSwap, entry.Tag)
	assert.Equal(t, signer, entry.Signer)
	assert.False(t, entry.AppliedAt.IsZero())

	result.Applied = false
	_, err = NewEntry(sub, result)
	assert.Error(t, err)
}
