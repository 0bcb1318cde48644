package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period before a geocoder lookup is sent.
const DefaultDebounce = 350 * time.Millisecond

// Suggester debounces geocoder lookups per caller. A newer query from the same
// caller cancels the pending or in-flight one, which then returns no places.
type Suggester struct {
	geocoder Geocoder
	delay    time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	seq     uint64
	pending map[string]pendingLookup
}

type pendingLookup struct {
	id     uint64
	cancel context.CancelFunc
}

// NewSuggester wraps geocoder with a debounce of delay.
func NewSuggester(geocoder Geocoder, delay time.Duration, logger *zap.Logger) *Suggester {
	return &Suggester{
		geocoder: geocoder,
		delay:    delay,
		logger:   logger,
		pending:  make(map[string]pendingLookup),
	}
}

// Suggest returns address candidates for q. Failures, aborts and blank queries all
// yield an empty result.
func (s *Suggester) Suggest(ctx context.Context, caller, q string) []Place {
	txt := strings.TrimSpace(q)

	s.mu.Lock()
	if prev, ok := s.pending[caller]; ok {
		prev.cancel()
		delete(s.pending, caller)
	}
	if txt == "" || s.geocoder == nil {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	id := s.seq
	s.pending[caller] = pendingLookup{id: id, cancel: cancel}
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if cur, ok := s.pending[caller]; ok && cur.id == id {
			delete(s.pending, caller)
		}
		s.mu.Unlock()
	}()

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
	}

	places, err := s.geocoder.Lookup(ctx, txt)
	if err != nil {
		s.logger.Debug("Geocoder lookup failed", zap.String("query", txt), zap.Error(err))
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	return places
}
