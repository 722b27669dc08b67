package availability

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	domain "github.com/BruksfildServices01/agenda-engine/internal/domain/booking"
	"github.com/BruksfildServices01/agenda-engine/internal/events"
)

// Sweeper periodically asks for a full cache refresh of every
// organization, healing rows a lost event left stale.
type Sweeper struct {
	orgs      domain.OrganizationReader
	publisher events.Publisher
	log       *zerolog.Logger
	cron      *cron.Cron
}

func NewSweeper(orgs domain.OrganizationReader, publisher events.Publisher, log *zerolog.Logger) *Sweeper {
	return &Sweeper{
		orgs:      orgs,
		publisher: publisher,
		log:       log,
		cron:      cron.New(),
	}
}

// Start schedules Run with a standard five-field cron expression.
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("cache sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cache sweep %q: %w", schedule, err)
	}

	s.cron.Start()
	s.log.Info().Str("schedule", schedule).Msg("cache sweep scheduled")
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Run enqueues one sweep event per organization and returns how many
// were dispatched.
func (s *Sweeper) Run(ctx context.Context) (int, error) {
	orgs, err := s.orgs.ListOrganizations(ctx)
	if err != nil {
		return 0, fmt.Errorf("list organizations: %w", err)
	}

	for _, org := range orgs {
		s.publisher.Dispatch(events.Event{
			Type:           events.TypeCacheSweep,
			OrganizationID: org.ID,
			Actor:          events.ActorSystem,
		})
	}

	s.log.Info().Int("organizations", len(orgs)).Msg("cache sweep dispatched")
	return len(orgs), nil
}
