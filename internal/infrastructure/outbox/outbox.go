package outbox

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-orders/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability/logctx"
)

const (
	componentOutbox = "outbox"
	queueSize       = 1024
	fanoutCap       = 8
	handlerTimeout  = 30 * time.Second
)

// ErrClosed is returned by Publish after Stop.
var ErrClosed = errors.New("outbox: bus stopped")

// Bus is an in-memory event bus that fans events out to subscribers on a single
// dispatch goroutine. It is not durable: events still queued when the process dies are lost.
type Bus struct {
	mu          sync.RWMutex
	subs        map[string][]domoutbox.Handler
	queue       chan domoutbox.Event
	closed      bool
	startOnce   sync.Once
	stopOnce    sync.Once
	done        chan struct{}
	concurrency int
	log         observability.Logger
}

func NewBus(logger observability.Logger) *Bus {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Bus{
		subs:        make(map[string][]domoutbox.Handler),
		queue:       make(chan domoutbox.Event, queueSize),
		done:        make(chan struct{}),
		concurrency: fanoutCap,
		log:         logger.With(observability.F("component", componentOutbox)),
	}
}

func (b *Bus) Subscribe(eventName string, h domoutbox.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventName] = append(b.subs[eventName], h)
}

func (b *Bus) Start(ctx context.Context) {
	b.startOnce.Do(func() {
		go b.dispatchLoop(context.WithoutCancel(ctx))
		logctx.FromOr(ctx, b.log).Info("event_bus_started")
	})
}

// Stop refuses new events and waits until queued ones are handled or ctx ends.
func (b *Bus) Stop(ctx context.Context) error {
	var err error
	b.stopOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.queue)
		b.mu.Unlock()

		// never started: nothing will drain the queue
		b.startOnce.Do(func() { close(b.done) })

		select {
		case <-b.done:
			logctx.FromOr(ctx, b.log).Info("event_bus_stopped")
		case <-ctx.Done():
			err = ctx.Err()
			logctx.FromOr(ctx, b.log).Warn("event_bus_stop_timeout", observability.F("error", err))
		}
	})
	return err
}

func (b *Bus) Publish(ctx context.Context, e domoutbox.Event) error {
	if e == nil {
		return nil
	}
	logger := logctx.FromOr(ctx, b.log).With(observability.F("event", e.EventName()))

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	select {
	case b.queue <- e:
		logger.Debug("event_enqueued")
		return nil
	case <-ctx.Done():
		logger.Warn("event_enqueue_aborted", observability.F("error", ctx.Err()))
		return ctx.Err()
	}
}

func (b *Bus) dispatchLoop(ctx context.Context) {
	defer close(b.done)
	for e := range b.queue {
		b.fanout(ctx, e)
	}
}

func (b *Bus) fanout(ctx context.Context, e domoutbox.Event) {
	name := e.EventName()

	b.mu.RLock()
	handlers := append([]domoutbox.Handler(nil), b.subs[name]...)
	b.mu.RUnlock()

	logger := b.log.With(observability.F("event", name))
	if len(handlers) == 0 {
		logger.Debug("event_dropped_no_subscriber")
		return
	}

	sem := make(chan struct{}, b.concurrency)
	var wg sync.WaitGroup

	for _, h := range handlers {
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("event_handler_panic",
						observability.F("panic", r),
						observability.F("stack", string(debug.Stack())),
					)
				}
				<-sem
				wg.Done()
			}()

			hctx, cancel := context.WithTimeout(ctx, handlerTimeout)
			defer cancel()
			if err := h(logctx.With(hctx, logger), e); err != nil {
				logger.Warn("event_handler_error", observability.F("error", err))
			}
		}()
	}

	wg.Wait()

	logger.Debug("event_fanned_out", observability.F("handlers", len(handlers)))
}
