package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	"github.com/estudai/smart-plan-api/internal/repository"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
)

type sessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.PlanSession, error)
	Create(ctx context.Context, session *models.PlanSession) error
	Update(ctx context.Context, session *models.PlanSession) error
	Delete(ctx context.Context, id string, cascadeRevisions bool) error
	ListByPlan(ctx context.Context, planID string, filter repository.SessionFilter) ([]models.PlanSession, error)
}

type sessionPlanReader interface {
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	UpdateStats(ctx context.Context, planID string, stats models.PlanStats) error
}

type sessionSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// SessionService mutates individual plan sessions. Every mutation recomputes
// the owning plan's aggregate counters so the summary never drifts from the
// session set.
type SessionService struct {
	sessions  sessionRepository
	plans     sessionPlanReader
	subjects  sessionSubjectReader
	cache     planCache
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService wires session dependencies.
func NewSessionService(sessions sessionRepository, plans sessionPlanReader, subjects sessionSubjectReader, cache planCache, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:  sessions,
		plans:     plans,
		subjects:  subjects,
		cache:     cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// Add appends a manual session to an existing plan.
func (s *SessionService) Add(ctx context.Context, userID, planID string, req dto.CreateSessionRequest) (*models.PlanSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	plan, err := s.ownedPlan(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	date, err := models.ParsePlainDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
	}
	if date.Before(plan.StartDate) || date.After(plan.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session date falls outside the plan range")
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session start time")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	meta := models.SessionMetadata{
		SubjectDifficulty: subject.Difficulty,
		SubjectImportance: subject.Importance,
	}
	encoded, err := meta.Encode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode session metadata")
	}

	session := &models.PlanSession{
		PlanID:          planID,
		Title:           subject.Title,
		DisciplineID:    subject.DisciplineID,
		SubjectID:       subject.ID,
		Date:            date,
		StartTime:       formatClock(start),
		EndTime:         formatClock(start + req.DurationMinutes),
		DurationMinutes: req.DurationMinutes,
		IsRevision:      false,
		Metadata:        encoded,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	if err := s.refreshStats(ctx, plan); err != nil {
		return nil, err
	}
	s.invalidate(ctx, planID)
	return session, nil
}

// Update mutates a session's schedule or completion state.
func (s *SessionService) Update(ctx context.Context, userID, sessionID string, req dto.UpdateSessionRequest) (*models.PlanSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, plan, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		date, parseErr := models.ParsePlainDate(*req.Date)
		if parseErr != nil {
			return nil, appErrors.Wrap(parseErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session date")
		}
		if date.Before(plan.StartDate) || date.After(plan.EndDate) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "session date falls outside the plan range")
		}
		session.Date = date
	}
	if req.DurationMinutes != nil {
		session.DurationMinutes = *req.DurationMinutes
	}
	if req.StartTime != nil {
		start, parseErr := parseClock(*req.StartTime)
		if parseErr != nil {
			return nil, appErrors.Wrap(parseErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session start time")
		}
		session.StartTime = formatClock(start)
		session.EndTime = formatClock(start + session.DurationMinutes)
	} else if req.DurationMinutes != nil {
		start, parseErr := parseClock(session.StartTime)
		if parseErr == nil {
			session.EndTime = formatClock(start + session.DurationMinutes)
		}
	}

	if req.Completed != nil {
		meta, decodeErr := models.DecodeSessionMetadata(session.Metadata)
		if decodeErr != nil {
			meta = models.SessionMetadata{}
		}
		if *req.Completed {
			actual := session.DurationMinutes
			if req.ActualDurationMinutes != nil {
				actual = *req.ActualDurationMinutes
			}
			meta.Completion = &models.SessionCompletion{
				CompletedAt:           s.now().UTC(),
				ActualDurationMinutes: actual,
			}
		} else {
			meta.Completion = nil
		}
		encoded, encodeErr := meta.Encode()
		if encodeErr != nil {
			return nil, appErrors.Wrap(encodeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode session metadata")
		}
		session.Metadata = encoded
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}

	if err := s.refreshStats(ctx, plan); err != nil {
		return nil, err
	}
	s.invalidate(ctx, session.PlanID)
	return session, nil
}

// Delete removes a session. Deleting a main session removes its revisions as
// well.
func (s *SessionService) Delete(ctx context.Context, userID, sessionID string) error {
	session, plan, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(ctx, sessionID, !session.IsRevision); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}

	if err := s.refreshStats(ctx, plan); err != nil {
		return err
	}
	s.invalidate(ctx, session.PlanID)
	return nil
}

func (s *SessionService) ownedPlan(ctx context.Context, userID, planID string) (*models.Plan, error) {
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

func (s *SessionService) ownedSession(ctx context.Context, userID, sessionID string) (*models.PlanSession, *models.Plan, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	plan, err := s.ownedPlan(ctx, userID, session.PlanID)
	if err != nil {
		return nil, nil, err
	}
	return session, plan, nil
}

func (s *SessionService) refreshStats(ctx context.Context, plan *models.Plan) error {
	sessions, err := s.sessions.ListByPlan(ctx, plan.ID, repository.SessionFilter{})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload plan sessions")
	}
	stats := computePlanStats(sessions, plan.StartDate, plan.EndDate)
	if err := s.plans.UpdateStats(ctx, plan.ID, stats); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan stats")
	}
	return nil
}

func (s *SessionService) invalidate(ctx context.Context, planID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, planCacheKey(planID)+"*"); err != nil {
		s.logger.Warn("plan cache invalidation failed", zap.String("plan_id", planID), zap.Error(err))
	}
}
