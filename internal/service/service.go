package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"training-load/internal/fetcher"
	"training-load/internal/storage"
	"training-load/internal/trainload"
)

// Service orchestrates fetching, load computation, and persistence.
type Service struct {
	source fetcher.ActivitySource
	store  storage.LoadStore
	params trainload.Params
	userID string
	days   int
	logger zerolog.Logger
}

// New constructs the training-load service. store may be nil, in which case
// computed series are returned but not persisted.
func New(source fetcher.ActivitySource, store storage.LoadStore, params trainload.Params, userID string, days int, logger zerolog.Logger) *Service {
	return &Service{
		source: source,
		store:  store,
		params: params,
		userID: userID,
		days:   days,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Refresh runs the full pipeline for the past N days: fetch activities,
// compute the load series, persist it, and assemble the caller-facing
// result. An empty activity batch short-circuits before the store is
// touched.
func (s *Service) Refresh(ctx context.Context, days int) (trainload.Result, error) {
	if days <= 0 {
		days = s.days
	}

	activities, err := s.source.FetchActivities(ctx, days)
	if err != nil {
		return trainload.Result{}, fmt.Errorf("fetch activities: %w", err)
	}

	series, skipped := trainload.Compute(activities, s.params)
	for _, sk := range skipped {
		s.logger.Warn().Int64("activity_id", sk.ActivityID).Str("reason", sk.Reason).
			Msg("activity skipped during load computation")
	}

	result := trainload.Assemble(series)
	if len(series) == 0 {
		s.logger.Info().Int("days", days).Msg("no scorable activities in window")
		return result, nil
	}

	if s.store != nil {
		if err := s.store.UpsertBatch(ctx, s.userID, series); err != nil {
			return trainload.Result{}, err
		}
	}

	s.logger.Info().
		Int("days", days).
		Int("activities", len(activities)).
		Int("points", len(series)).
		Str("trend", result.Summary.Trend).
		Msg("training load refreshed")

	return result, nil
}

// ProcessTick adapts Refresh to the scheduler callback for serve mode.
func (s *Service) ProcessTick(ctx context.Context, _ time.Time) error {
	_, err := s.Refresh(ctx, s.days)
	return err
}
