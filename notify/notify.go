package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bobinette/teams"
	"github.com/bobinette/teams/log"
)

// Logger writes one log line per event.
type Logger struct {
	logger log.Logger
}

func NewLogger(logger log.Logger) *Logger {
	return &Logger{logger: logger}
}

func (n *Logger) Notify(ctx context.Context, event teams.Event) error {
	n.logger.WithFields(log.Fields{
		"event":      string(event.Name),
		"team":       event.TeamID,
		"user":       event.UserID,
		"membership": event.Membership.ID,
		"role":       event.Membership.Role.String(),
		"status":     event.Membership.Status.String(),
	}).Infof("%s: %s", event.Name, event.Membership)
	return nil
}

// Multi sends every event to all its notifiers, even when some fail.
type Multi []teams.Notifier

func (m Multi) Notify(ctx context.Context, event teams.Event) error {
	var errs []string
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d notifiers failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

// Async notifies in the background. Errors and panics of the wrapped
// notifier are logged.
type Async struct {
	notifier teams.Notifier
	logger   log.Logger

	wg sync.WaitGroup
}

func NewAsync(notifier teams.Notifier, logger log.Logger) *Async {
	return &Async{notifier: notifier, logger: logger}
}

func (a *Async) Notify(ctx context.Context, event teams.Event) error {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.logger.Errorf("notifier panicked on %s: %v", event.Name, r)
			}
		}()

		// The request context may be gone by now
		if err := a.notifier.Notify(context.Background(), event); err != nil {
			a.logger.Errorf("could not notify %s: %v", event.Name, err)
		}
	}()
	return nil
}

// Wait blocks until all the pending notifications are sent.
func (a *Async) Wait() {
	a.wg.Wait()
}

// Recorder keeps the events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []teams.Event
}

func (r *Recorder) Notify(ctx context.Context, event teams.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []teams.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]teams.Event, len(r.events))
	copy(events, r.events)
	return events
}

// Names returns the names of the recorded events, in order.
func (r *Recorder) Names() []teams.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]teams.EventName, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name
	}
	return names
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = nil
}
