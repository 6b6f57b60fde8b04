package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quizontal-backend/internal/docstore"
	"quizontal-backend/internal/models"
	"quizontal-backend/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Sweeper deletes memberships whose collection no longer exists. These are
// left behind when a collection delete only partly succeeds.
type Sweeper struct {
	collections *repository.CollectionRepository
	memberships *repository.MembershipRepository
	cron        *cron.Cron
}

// NewSweeper creates a sweeper
func NewSweeper(collections *repository.CollectionRepository, memberships *repository.MembershipRepository) *Sweeper {
	return &Sweeper{
		collections: collections,
		memberships: memberships,
		cron:        cron.New(),
	}
}

// Start schedules Sweep with a cron spec such as "@every 10m"
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			log.Error().Err(err).Msg("Membership sweep failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweeper schedule %q: %w", schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", schedule).Msg("Membership sweeper started")
	return nil
}

// Stop stops scheduling and waits for a running sweep
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes orphaned memberships and returns how many were removed.
// Each run reads every membership and every collection, two queries in
// total, so its cost grows with the size of the store.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	// Memberships first: a collection always exists before its memberships,
	// so one created during the sweep is still in the second list.
	all, err := s.memberships.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}

	cols, err := s.collections.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	live := lo.SliceToMap(cols, func(c *models.Collection) (string, struct{}) { return c.ID, struct{}{} })

	orphans := lo.Filter(all, func(m *models.Membership, _ int) bool {
		_, ok := live[m.CollectionID]
		return !ok
	})
	if len(orphans) == 0 {
		return 0, nil
	}

	var removed int
	for _, m := range orphans {
		if err := s.memberships.Delete(ctx, m.ID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			log.Warn().Err(err).Str("membership_id", m.ID).Msg("Failed to delete orphaned membership")
			continue
		}
		removed++
	}

	collections := lo.Uniq(lo.Map(orphans, func(m *models.Membership, _ int) string { return m.CollectionID }))
	log.Info().Int("collections", len(collections)).Int("removed", removed).Msg("Swept orphaned memberships")
	return removed, nil
}
