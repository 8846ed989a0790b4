// Package notifier pushes balance-change events to the main backend over a
// websocket. Delivery is best-effort: failures are logged and never reach
// the orchestration path, and events emitted while the channel is down are
// queued FIFO and flushed in order once it reconnects.
package notifier

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/placescout/placescout-backend/internal/config"
)

// Event is the single message type carried by the channel.
type Event struct {
	Event   string    `json:"event"`
	OwnerID uuid.UUID `json:"userId"`
	Balance int64     `json:"credits"`
}

const eventName = "credits-updated"

// wsConn is the subset of *websocket.Conn the sink writes through.
type wsConn interface {
	WriteJSON(v any) error
	Close() error
}

// Sink owns the outbound websocket connection and the pending event queue.
// Safe for concurrent use by multiple requests.
type Sink struct {
	url            string
	reconnectDelay time.Duration
	maxDelay       time.Duration
	log            *slog.Logger

	// dial is replaced in tests.
	dial func() (wsConn, error)

	mu      sync.Mutex
	pending []Event

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a Sink and starts its delivery loop. An empty URL disables
// delivery entirely: events are dropped with a warning.
func New(cfg config.NotifierConfig, logger *slog.Logger) *Sink {
	s := &Sink{
		url:            cfg.URL,
		reconnectDelay: cfg.ReconnectDelay,
		maxDelay:       cfg.MaxDelay,
		log:            logger.With("component", "notifier"),
		wake:           make(chan struct{}, 1),
		done:           make(chan struct{}),
	}

	dialer := &websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	s.dial = func() (wsConn, error) {
		conn, _, err := dialer.Dial(s.url, nil)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	if s.url != "" {
		s.wg.Add(1)
		go s.run()
	}

	return s
}

// Emit queues a balance-change event for delivery. Never blocks beyond a
// queue append and never returns an error: this path must not affect the
// caller's outcome.
func (s *Sink) Emit(ownerID uuid.UUID, balance int64) {
	if s.url == "" {
		s.log.Warn("notifier disabled, dropping event",
			slog.String("owner_id", ownerID.String()),
			slog.Int64("balance", balance),
		)
		return
	}

	s.mu.Lock()
	s.pending = append(s.pending, Event{Event: eventName, OwnerID: ownerID, Balance: balance})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of undelivered events.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops the delivery loop and closes the connection. Events still
// queued are dropped; the channel is at-most-once by contract.
func (s *Sink) Close() {
	close(s.done)
	s.wg.Wait()
}

func (s *Sink) run() {
	defer s.wg.Done()

	var conn wsConn
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	delay := s.reconnectDelay

	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			ev, ok := s.peek()
			if !ok {
				break
			}

			if conn == nil {
				c, err := s.dial()
				if err != nil {
					s.log.Warn("notifier connect failed",
						slog.String("error", err.Error()),
						slog.Duration("retry_in", delay),
					)
					if !s.sleep(delay) {
						return
					}
					delay = min(delay*2, s.maxDelay)
					continue
				}
				conn = c
				delay = s.reconnectDelay
				s.log.Info("notifier connected", slog.String("url", s.url))
			}

			if err := conn.WriteJSON(ev); err != nil {
				// Keep the event at the head of the queue; it goes out
				// first after reconnect.
				s.log.Warn("notifier write failed", slog.String("error", err.Error()))
				_ = conn.Close()
				conn = nil
				continue
			}
			s.pop()
		}
	}
}

// peek returns the head of the queue without removing it.
func (s *Sink) peek() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return Event{}, false
	}
	return s.pending[0], true
}

func (s *Sink) pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		s.pending = s.pending[1:]
	}
}

// sleep waits for d, returning false if the sink was closed meanwhile.
func (s *Sink) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.done:
		return false
	case <-t.C:
		return true
	}
}
