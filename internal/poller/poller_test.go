package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type scriptedCounter struct {
	mu     sync.Mutex
	counts []int
	errs   []error
	calls  int
}

func (s *scriptedCounter) UnreadCount(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	s.calls++
	if idx >= len(s.counts) {
		idx = len(s.counts) - 1
	}
	if idx < len(s.errs) && s.errs[idx] != nil {
		return 0, s.errs[idx]
	}
	return s.counts[idx], nil
}

func TestPollerNotifiesOnChangeOnly(t *testing.T) {
	counter := &scriptedCounter{counts: []int{2, 2, 3, 3}}

	var mu sync.Mutex
	var observed []int
	p := New(counter, 5*time.Millisecond, zap.NewNop(), func(count int) {
		mu.Lock()
		observed = append(observed, count)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 3}, observed, "callback fires on first observation and on change, not every tick")
}

func TestPollerSurvivesErrors(t *testing.T) {
	counter := &scriptedCounter{
		counts: []int{0, 1, 1},
		errs:   []error{errors.New("store down")},
	}

	var mu sync.Mutex
	var observed []int
	p := New(counter, 5*time.Millisecond, zap.NewNop(), func(count int) {
		mu.Lock()
		observed = append(observed, count)
		mu.Unlock()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1}, observed, "a failed poll delays, never kills, the loop")
}

func TestPollerDefaultInterval(t *testing.T) {
	p := New(&scriptedCounter{counts: []int{0}}, 0, zap.NewNop(), nil)
	assert.Equal(t, 5*time.Second, p.interval)
}
