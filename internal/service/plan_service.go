package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	"github.com/estudai/smart-plan-api/internal/repository"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
)

type planRepository interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	ListByUser(ctx context.Context, userID string, status models.PlanStatus, page, pageSize int) ([]models.Plan, int, error)
	UpdateStatus(ctx context.Context, id string, status models.PlanStatus) error
	Delete(ctx context.Context, id string) error
}

type planSessionReader interface {
	ListByPlan(ctx context.Context, planID string, filter repository.SessionFilter) ([]models.PlanSession, error)
}

type planCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PlanService exposes read and lifecycle operations over persisted plans.
type PlanService struct {
	plans    planRepository
	sessions planSessionReader
	cache    planCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewPlanService wires plan dependencies.
func NewPlanService(plans planRepository, sessions planSessionReader, cache planCache, cacheTTL time.Duration, logger *zap.Logger) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &PlanService{
		plans:    plans,
		sessions: sessions,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func planCacheKey(planID string) string {
	return fmt.Sprintf("plan:%s", planID)
}

// Get returns a single plan owned by the user, served from cache when fresh.
func (s *PlanService) Get(ctx context.Context, userID, planID string) (*models.Plan, error) {
	if s.cache != nil {
		var cached models.Plan
		if err := s.cache.Get(ctx, planCacheKey(planID), &cached); err == nil {
			if cached.UserID != userID {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "plan belongs to another user")
			}
			return &cached, nil
		}
	}

	plan, err := s.findOwned(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, planCacheKey(planID), plan, s.cacheTTL); err != nil {
			s.logger.Warn("plan cache write failed", zap.String("plan_id", planID), zap.Error(err))
		}
	}
	return plan, nil
}

// List returns the user's plans with pagination metadata.
func (s *PlanService) List(ctx context.Context, userID string, query dto.PlanListQuery) ([]models.Plan, *models.Pagination, error) {
	status := models.PlanStatus(query.Status)
	if query.Status != "" && !status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown plan status")
	}
	plans, total, err := s.plans.ListByUser(ctx, userID, status, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plans")
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return plans, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Sessions returns the plan's session list under the given filters.
func (s *PlanService) Sessions(ctx context.Context, userID, planID string, query dto.SessionListQuery) ([]models.PlanSession, error) {
	if _, err := s.findOwned(ctx, userID, planID); err != nil {
		return nil, err
	}

	filter := repository.SessionFilter{
		Revisions:    query.Revisions,
		SubjectID:    query.SubjectID,
		DisciplineID: query.Discipline,
	}
	if query.From != "" {
		from, err := models.ParsePlainDate(query.From)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
		}
		filter.From = &from
	}
	if query.To != "" {
		to, err := models.ParsePlainDate(query.To)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
		}
		filter.To = &to
	}

	sessions, err := s.sessions.ListByPlan(ctx, planID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plan sessions")
	}
	return sessions, nil
}

// UpdateStatus transitions a plan's lifecycle state.
func (s *PlanService) UpdateStatus(ctx context.Context, userID, planID string, status models.PlanStatus) error {
	if !status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown plan status")
	}
	if _, err := s.findOwned(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.plans.UpdateStatus(ctx, planID, status); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan status")
	}
	s.invalidate(ctx, planID)
	return nil
}

// Delete removes a plan and all of its sessions.
func (s *PlanService) Delete(ctx context.Context, userID, planID string) error {
	if _, err := s.findOwned(ctx, userID, planID); err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, planID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete plan")
	}
	s.invalidate(ctx, planID)
	return nil
}

func (s *PlanService) findOwned(ctx context.Context, userID, planID string) (*models.Plan, error) {
	plan, err := s.plans.FindByID(ctx, planID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}
	if plan.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "plan belongs to another user")
	}
	return plan, nil
}

func (s *PlanService) invalidate(ctx context.Context, planID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, planCacheKey(planID)+"*"); err != nil {
		s.logger.Warn("plan cache invalidation failed", zap.String("plan_id", planID), zap.Error(err))
	}
}
