package scan

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"seekr/internal/probe"
)

// State is the lifecycle phase of a scan session.
type State string

const (
	// StatePending means tasks are dispatched but no outcome is delivered.
	StatePending State = "pending"
	// StateStreaming means at least one outcome has been delivered.
	StateStreaming State = "streaming"
	// StateComplete means all outcomes and the terminal event were delivered.
	StateComplete State = "complete"
	// StateCancelled means the consumer detached before completion.
	// In-flight probes finish in the background and are discarded.
	StateCancelled State = "cancelled"
)

// Session owns one dispatch run: it tracks outstanding probes, aggregates
// found outcomes, and emits the terminal event once every probe resolves.
type Session struct {
	handle string
	total  int
	events chan Event
	logger zerolog.Logger

	mu    sync.Mutex
	state State
}

// Events returns the session's result stream. The channel is closed after
// the terminal event, or without one when the session is cancelled.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Handle returns the handle being scanned.
func (s *Session) Handle() string {
	return s.handle
}

// Total returns the number of probes this session dispatched.
func (s *Session) Total() int {
	return s.total
}

// State returns the session's current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// run is the single consumer of probe outcomes. It serializes them onto the
// event stream in completion order and appends the terminal event. On
// context cancellation it stops delivering; producers drain into the
// buffered outcomes channel and are discarded.
func (s *Session) run(ctx context.Context, outcomes <-chan probe.Outcome) {
	defer close(s.events)

	var found []probe.Outcome
	received := 0

	for received < s.total {
		select {
		case outcome := <-outcomes:
			received++
			if outcome.Found {
				found = append(found, outcome)
			}
			event := Event{Type: EventSiteResult, Result: &outcome}
			select {
			case s.events <- event:
				s.setState(StateStreaming)
			case <-ctx.Done():
				s.cancel(received)
				return
			}
		case <-ctx.Done():
			s.cancel(received)
			return
		}
	}

	terminal := Event{
		Type:          EventSearchComplete,
		Summary:       &Summary{Total: s.total, FoundCount: len(found)},
		FoundProfiles: found,
	}
	select {
	case s.events <- terminal:
		s.setState(StateComplete)
		s.logger.Info().
			Str("handle", s.handle).
			Int("total", s.total).
			Int("found", len(found)).
			Msg("Scan complete")
	case <-ctx.Done():
		s.cancel(received)
	}
}

func (s *Session) cancel(received int) {
	s.setState(StateCancelled)
	s.logger.Info().
		Str("handle", s.handle).
		Int("delivered_or_received", received).
		Int("total", s.total).
		Msg("Scan cancelled, discarding remaining outcomes")
}
