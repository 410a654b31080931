package draft

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

// Autosaver persists the latest snapshot per key in the background.
// Snapshot never blocks on the store; older pending snapshots for a key are replaced.
type Autosaver struct {
	store    Store
	debounce time.Duration
	log      *zap.Logger

	flushMu sync.Mutex

	mu        sync.Mutex
	pending   map[Key]domain.Document
	writing   map[Key]domain.Document
	forgotten map[Key]uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewAutosaver(store Store, debounce time.Duration, log *zap.Logger) *Autosaver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Autosaver{
		store:     store,
		debounce:  debounce,
		log:       log.Named("draft.autosave"),
		pending:   make(map[Key]domain.Document),
		writing:   make(map[Key]domain.Document),
		forgotten: make(map[Key]uint64),
		wake:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Snapshot queues doc to be written under key.
func (a *Autosaver) Snapshot(key Key, doc domain.Document) {
	a.mu.Lock()
	a.pending[key] = doc.Clone()
	a.mu.Unlock()

	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Latest returns the snapshot still waiting to be written under key, if any.
func (a *Autosaver) Latest(key Key) (domain.Document, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if doc, ok := a.pending[key]; ok {
		return doc.Clone(), true
	}
	if doc, ok := a.writing[key]; ok {
		return doc.Clone(), true
	}
	return domain.Document{}, false
}

// Forget drops anything queued or being written for key. A write already in
// flight is undone once it lands.
func (a *Autosaver) Forget(key Key) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, key)
	delete(a.writing, key)
	a.forgotten[key]++
}

// Start runs the write loop until Stop.
func (a *Autosaver) Start() {
	go a.loop()
}

// Stop ends the loop and writes whatever is still pending.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.once.Do(func() { close(a.stop) })
	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return a.Flush(ctx)
}

// Flush writes every pending snapshot now. Flushes run one at a time.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.flushMu.Lock()
	defer a.flushMu.Unlock()

	a.mu.Lock()
	batch := a.pending
	a.pending = make(map[Key]domain.Document)
	epochs := make(map[Key]uint64, len(batch))
	for key, doc := range batch {
		a.writing[key] = doc
		epochs[key] = a.forgotten[key]
	}
	a.mu.Unlock()

	var firstErr error
	for key, doc := range batch {
		if a.wasForgotten(key, epochs[key]) {
			continue
		}
		err := a.store.Save(ctx, key, doc)
		if err == nil && a.wasForgotten(key, epochs[key]) {
			err = a.store.Delete(ctx, key)
		}

		a.mu.Lock()
		if a.forgotten[key] == epochs[key] {
			delete(a.writing, key)
		}
		a.mu.Unlock()

		if err != nil {
			a.log.Warn("draft autosave failed",
				zap.String("user_id", key.UserID),
				zap.String("kind", string(key.Kind)),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (a *Autosaver) wasForgotten(key Key, epoch uint64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.forgotten[key] != epoch
}

func (a *Autosaver) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.stop:
			return
		case <-a.wake:
		}

		if a.debounce > 0 {
			timer := time.NewTimer(a.debounce)
			select {
			case <-a.stop:
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		_ = a.Flush(context.Background())
	}
}
