package app

import (
	"context"
	"log"
	"time"

	"github.com/hexs00si/lms-circulation/internal/clock"
	"github.com/hexs00si/lms-circulation/internal/event"
)

// ExpirySweeper periodically marks overdue reservations Expired and warns
// subscribers about reservations approaching the end of their hold window.
// Correctness never depends on it running: reads and fulfill/cancel treat an
// overdue Active reservation as expired on their own.
type ExpirySweeper struct {
	svc        *CirculationService
	clock      clock.Clock
	events     event.Publisher
	logger     *log.Logger
	interval   time.Duration
	warnWithin time.Duration

	// warned holds reservation IDs already announced as expiring, so repeat
	// sweeps stay quiet about them. Only the Run goroutine touches it.
	warned map[string]struct{}
}

const (
	defaultSweepInterval = 5 * time.Minute
	defaultWarnWithin    = 6 * time.Hour
)

func NewExpirySweeper(svc *CirculationService, clk clock.Clock, events event.Publisher, logger *log.Logger) *ExpirySweeper {
	if events == nil {
		events = event.Nop{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExpirySweeper{
		svc:        svc,
		clock:      clk,
		events:     events,
		logger:     logger,
		interval:   defaultSweepInterval,
		warnWithin: defaultWarnWithin,
		warned:     make(map[string]struct{}),
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *ExpirySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Printf("WARN: reservation sweep: %v", err)
			}
		}
	}
}

// Sweep runs one pass: expire overdue reservations, then publish
// ReservationExpiringSoon once per reservation entering the warning window.
// Reservations that leave the window (expired, fulfilled, cancelled) drop
// out of the dedup set so the memory stays bounded.
func (s *ExpirySweeper) Sweep(ctx context.Context) error {
	expired, err := s.svc.ExpireOverdueReservations(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		s.logger.Printf("expired %d overdue reservations", expired)
	}

	now := s.clock.Now()
	expiring, err := s.svc.repo.ListExpiringReservations(ctx, now, now.Add(s.warnWithin))
	if err != nil {
		return err
	}
	inWindow := make(map[string]struct{}, len(expiring))
	for _, res := range expiring {
		inWindow[res.ID] = struct{}{}
		if _, ok := s.warned[res.ID]; ok {
			continue
		}
		s.events.Publish(event.Event{
			Kind:        event.KindReservationExpiringSoon,
			MemberID:    res.MemberID,
			CopyBarcode: res.CopyBarcode,
			BranchID:    res.BranchID,
			EntityID:    res.ID,
			OccurredAt:  now,
		})
	}
	s.warned = inWindow
	return nil
}
