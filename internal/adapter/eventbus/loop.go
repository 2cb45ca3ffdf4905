package eventbus

import (
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// Loop is a serial executor: posted functions run one at a time, in order,
// on a single goroutine owned by the loop.
//
// The session keeps all of its state on a Loop. Engine events and catalog
// completions arrive on other goroutines and are funnelled onto it with Post.
type Loop struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []func()
	closed  bool

	wake    chan struct{}
	stopped chan struct{}
}

// NewLoop creates a loop and starts its goroutine.
func NewLoop(logger *slog.Logger) *Loop {
	l := &Loop{
		logger:  logger,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.stopped)

	for {
		l.mu.Lock()
		for len(l.pending) == 0 {
			if l.closed {
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		fn := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		l.mu.Unlock()

		l.execute(fn)
	}
}

// execute runs fn and recovers from panics so one bad task cannot stop the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.Error("loop task panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Post schedules fn and returns immediately.
// Returns false if the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	l.signal()
	return true
}

// Do runs fn on the loop and waits for it to return.
// Calling Do from a function already running on the loop deadlocks.
func (l *Loop) Do(fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return domain.ErrSessionClosed
	}
	<-done
	return nil
}

// Close stops accepting work, runs what was already posted and waits for the
// loop goroutine to exit. It is safe to call more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	l.signal()
	<-l.stopped
}

// Verify that Loop implements the Executor interface
var _ ports.Executor = (*Loop)(nil)
