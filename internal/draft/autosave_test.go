package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

type failingStore struct {
	mu    sync.Mutex
	calls int
}

func (f *failingStore) Save(context.Context, Key, domain.Document) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return errors.New("redis down")
}

func (f *failingStore) Load(context.Context, Key) (domain.Document, error) {
	return domain.Document{}, errors.New("redis down")
}

func (f *failingStore) Delete(context.Context, Key) error { return nil }

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	key := Key{UserID: "u1", Kind: domain.KindReceipt}
	ctx := context.Background()

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)

	doc := domain.Document{Kind: domain.KindReceipt, Items: []domain.LineItem{{Name: "tea"}}}
	require.NoError(t, store.Save(ctx, key, doc))
	doc.Items[0].Name = "mutated"

	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "tea", got.Items[0].Name)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "draft:invoice:u9", Key{UserID: "u9", Kind: domain.KindInvoice}.String())
}

func TestAutosaverKeepsLatestSnapshot(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	saver := NewAutosaver(store, 0, zap.NewNop())
	key := Key{UserID: "u1", Kind: domain.KindInvoice}

	saver.Snapshot(key, domain.Document{Notes: "first"})
	saver.Snapshot(key, domain.Document{Notes: "second"})

	latest, ok := saver.Latest(key)
	require.True(t, ok)
	assert.Equal(t, "second", latest.Notes)

	require.NoError(t, saver.Flush(context.Background()))
	_, ok = saver.Latest(key)
	assert.False(t, ok)

	stored, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Notes)
}

func TestAutosaverLoopWritesInBackground(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	saver := NewAutosaver(store, 0, zap.NewNop())
	saver.Start()
	key := Key{UserID: "u1", Kind: domain.KindInvoice}

	saver.Snapshot(key, domain.Document{Notes: "bg"})

	assert.Eventually(t, func() bool {
		doc, err := store.Load(context.Background(), key)
		return err == nil && doc.Notes == "bg"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, saver.Stop(context.Background()))
}

func TestAutosaverStopFlushesPending(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	saver := NewAutosaver(store, time.Hour, zap.NewNop())
	saver.Start()
	key := Key{UserID: "u2", Kind: domain.KindReceipt}

	saver.Snapshot(key, domain.Document{Notes: "pending"})
	require.NoError(t, saver.Stop(context.Background()))

	doc, err := store.Load(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "pending", doc.Notes)
}

func TestAutosaverFlushReportsStoreError(t *testing.T) {
	store := &failingStore{}
	saver := NewAutosaver(store, 0, zap.NewNop())
	saver.Snapshot(Key{UserID: "u", Kind: domain.KindInvoice}, domain.Document{})

	err := saver.Flush(context.Background())
	assert.EqualError(t, err, "redis down")
	assert.Equal(t, 1, store.calls)
}

// blockingStore parks Save until release is closed.
type blockingStore struct {
	*MemoryStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) Save(ctx context.Context, key Key, doc domain.Document) error {
	close(b.started)
	<-b.release
	return b.MemoryStore.Save(ctx, key, doc)
}

func TestAutosaverForgetUndoesWriteInFlight(t *testing.T) {
	store := &blockingStore{
		MemoryStore: NewMemoryStore(time.Hour),
		started:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	saver := NewAutosaver(store, 0, zap.NewNop())
	key := Key{UserID: "u3", Kind: domain.KindInvoice}
	ctx := context.Background()

	saver.Snapshot(key, domain.Document{Notes: "old"})
	flushed := make(chan error, 1)
	go func() { flushed <- saver.Flush(ctx) }()
	<-store.started

	saver.Forget(key)
	require.NoError(t, store.Delete(ctx, key))
	_, ok := saver.Latest(key)
	assert.False(t, ok)

	close(store.release)
	require.NoError(t, <-flushed)

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAutosaverForgetDropsPending(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	saver := NewAutosaver(store, 0, zap.NewNop())
	key := Key{UserID: "u4", Kind: domain.KindReceipt}

	saver.Snapshot(key, domain.Document{Notes: "queued"})
	saver.Forget(key)
	require.NoError(t, saver.Flush(context.Background()))

	_, err := store.Load(context.Background(), key)
	assert.ErrorIs(t, err, ErrNotFound)
}
