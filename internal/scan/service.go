// Package scan turns independent probe completions into an ordered stream:
// one event per completed probe followed by exactly one terminal event.
package scan

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"seekr/internal/catalog"
	"seekr/internal/probe"
)

// Prober runs one probe to completion. Satisfied by *probe.Dispatcher.
type Prober interface {
	Probe(ctx context.Context, target catalog.ProbeTarget) probe.Outcome
}

// Service creates scan sessions over a fixed catalog.
type Service struct {
	catalog    *catalog.Catalog
	dispatcher Prober
	logger     zerolog.Logger
}

// NewService builds a scan service.
func NewService(cat *catalog.Catalog, dispatcher Prober, logger zerolog.Logger) *Service {
	return &Service{
		catalog:    cat,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "ScanService").Logger(),
	}
}

// Start validates the request, fans out one probe per catalog entry and
// returns the session carrying the result stream. Validation failures are
// returned directly; a started scan always ends in exactly one terminal
// event or a cancellation, never a partial rejection.
func (s *Service) Start(ctx context.Context, handle string, limit int) (*Session, error) {
	if err := catalog.ValidateHandle(handle); err != nil {
		return nil, fmt.Errorf("invalid handle: %w", err)
	}
	if s.catalog == nil || s.catalog.Len() == 0 {
		return nil, errors.New("catalog is empty")
	}

	targets := s.catalog.Targets(handle, limit)

	session := &Session{
		handle: handle,
		total:  len(targets),
		events: make(chan Event),
		state:  StatePending,
		logger: s.logger,
	}

	// Buffer for every outcome so producers never block on a detached
	// consumer; a cancelled session just stops draining.
	outcomes := make(chan probe.Outcome, len(targets))
	for _, target := range targets {
		go func(target catalog.ProbeTarget) {
			outcomes <- s.dispatcher.Probe(ctx, target)
		}(target)
	}

	s.logger.Info().
		Str("handle", handle).
		Int("targets", len(targets)).
		Msg("Scan started")

	go session.run(ctx, outcomes)

	return session, nil
}

// Search is the non-streaming variant: the same computation, returning the
// full outcome list once every probe resolves.
func (s *Service) Search(ctx context.Context, handle string, limit int) (*SearchResult, error) {
	session, err := s.Start(ctx, handle, limit)
	if err != nil {
		return nil, err
	}

	result := &SearchResult{
		Query:         handle,
		FoundProfiles: []probe.Outcome{},
		AllResults:    []probe.Outcome{},
	}

	for event := range session.Events() {
		switch event.Type {
		case EventSiteResult:
			result.AllResults = append(result.AllResults, *event.Result)
		case EventSearchComplete:
			result.TotalChecked = event.Summary.Total
			result.TotalFound = event.Summary.FoundCount
			result.FoundProfiles = append(result.FoundProfiles, event.FoundProfiles...)
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return result, nil
}
