package draft

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
)

// Service resolves the controller for a user's draft slot and serialises edits per slot.
type Service struct {
	store Store
	saver *Autosaver
	opts  Options
	log   *zap.Logger

	mu    sync.Mutex
	slots map[Key]*sync.Mutex
}

func NewService(store Store, saver *Autosaver, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if saver != nil {
		opts.Saver = saver
	}
	return &Service{
		store: store,
		saver: saver,
		opts:  opts,
		log:   log.Named("draft"),
		slots: make(map[Key]*sync.Mutex),
	}
}

// Get returns the current draft, seeding one when none exists.
func (s *Service) Get(ctx context.Context, key Key) (domain.Document, error) {
	return s.Apply(ctx, key, func(c *Controller) (domain.Document, error) {
		return c.Document(), nil
	})
}

// Apply runs fn against the slot's controller while holding the slot lock.
// Without an autosaver a changed draft is written to the store before Apply returns.
func (s *Service) Apply(ctx context.Context, key Key, fn func(*Controller) (domain.Document, error)) (domain.Document, error) {
	if !key.Kind.Valid() {
		return domain.Document{}, domain.ErrInvalidKind
	}
	lock := s.slot(key)
	lock.Lock()
	defer lock.Unlock()

	c := NewController(key, s.opts)
	if err := s.restore(ctx, c); err != nil {
		return domain.Document{}, err
	}
	doc, err := fn(c)
	if err != nil {
		return doc, err
	}
	if s.saver == nil && c.Dirty() {
		if err := s.store.Save(ctx, key, c.Document()); err != nil {
			return domain.Document{}, &domain.ExternalServiceError{Service: "draft_store", Op: "save", Cause: err}
		}
	}
	return doc, nil
}

// Reset replaces the draft with a freshly seeded one.
func (s *Service) Reset(ctx context.Context, key Key) (domain.Document, error) {
	return s.Apply(ctx, key, func(c *Controller) (domain.Document, error) {
		return c.Seed(), nil
	})
}

// LoadHistorical replaces the draft with a copy of a saved document.
func (s *Service) LoadHistorical(ctx context.Context, key Key, doc domain.Document) (domain.Document, error) {
	return s.Apply(ctx, key, func(c *Controller) (domain.Document, error) {
		return c.LoadHistorical(doc), nil
	})
}

// Discard drops the stored draft.
func (s *Service) Discard(ctx context.Context, key Key) error {
	lock := s.slot(key)
	lock.Lock()
	defer lock.Unlock()

	if s.saver != nil {
		s.saver.Forget(key)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return &domain.ExternalServiceError{Service: "draft_store", Op: "delete", Cause: err}
	}
	return nil
}

func (s *Service) restore(ctx context.Context, c *Controller) error {
	if s.saver != nil {
		if doc, ok := s.saver.Latest(c.Key()); ok {
			c.Resume(doc)
			return nil
		}
	}
	doc, err := s.store.Load(ctx, c.Key())
	switch {
	case err == nil:
		c.Resume(doc)
	case errors.Is(err, ErrNotFound):
		c.Seed()
	default:
		// the stored draft may still be intact; seeding here would overwrite it
		s.log.Warn("draft store unavailable", zap.String("key", c.Key().String()), zap.Error(err))
		return &domain.ExternalServiceError{Service: "draft_store", Op: "load", Cause: err}
	}
	return nil
}

func (s *Service) slot(key Key) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.slots[key]
	if !ok {
		m = &sync.Mutex{}
		s.slots[key] = m
	}
	return m
}
