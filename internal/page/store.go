package page

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrNotFound is returned when a page id is not in the store.
var ErrNotFound = errors.New("page not found")

// Store is a thread-safe in-memory page registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	pages    map[string]*Page
	ttl      time.Duration
	maxPages int
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStore creates a store. A zero ttl disables expiry, a zero maxPages
// disables the size cap.
func NewStore(ttl time.Duration, maxPages int, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		pages:    make(map[string]*Page),
		ttl:      ttl,
		maxPages: maxPages,
		log:      log,
	}
}

// Put adds a page. When the store is full the least recently updated page is
// evicted to make room.
func (s *Store) Put(p *Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.pages[p.ID]; !exists && s.maxPages > 0 && len(s.pages) >= s.maxPages {
		s.evictOldestLocked()
	}
	s.pages[p.ID] = p
}

func (s *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, p := range s.pages {
		t := p.UpdatedAt()
		if oldestID == "" || t.Before(oldest) {
			oldestID, oldest = id, t
		}
	}
	if oldestID != "" {
		delete(s.pages, oldestID)
		s.log.Info("page evicted", "page_id", oldestID, "reason", "max_pages")
	}
}

// Get returns the page or ErrNotFound.
func (s *Store) Get(id string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete drops a page. It reports whether the page existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pages[id]
	delete(s.pages, id)
	return ok
}

// Len returns the number of stored pages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Cleanup removes expired pages and returns how many were dropped.
func (s *Store) Cleanup() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, p := range s.pages {
		if now.Sub(p.UpdatedAt()) > s.ttl {
			delete(s.pages, id)
			n++
		}
	}
	return n
}

// Start launches the janitor goroutine. interval <= 0 picks a fraction of
// the TTL, capped at five minutes.
func (s *Store) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
		if s.ttl > 0 && s.ttl/4 < interval {
			interval = s.ttl / 4
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Cleanup(); n > 0 {
					s.log.Debug("expired pages removed", "count", n)
				}
			}
		}
	}()
}

// Stop halts the janitor and waits for it to exit.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
