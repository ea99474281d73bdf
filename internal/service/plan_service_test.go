package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	"github.com/estudai/smart-plan-api/internal/repository"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
)

type planRepoStub struct {
	plan       *models.Plan
	findErr    error
	findCalls  int
	plans      []models.Plan
	total      int
	listErr    error
	statusErr  error
	newStatus  models.PlanStatus
	deleteErr  error
	deletedIDs []string
}

func (r *planRepoStub) FindByID(_ context.Context, _ string) (*models.Plan, error) {
	r.findCalls++
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.plan, nil
}

func (r *planRepoStub) ListByUser(_ context.Context, _ string, _ models.PlanStatus, _, _ int) ([]models.Plan, int, error) {
	return r.plans, r.total, r.listErr
}

func (r *planRepoStub) UpdateStatus(_ context.Context, _ string, status models.PlanStatus) error {
	if r.statusErr != nil {
		return r.statusErr
	}
	r.newStatus = status
	return nil
}

func (r *planRepoStub) Delete(_ context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deletedIDs = append(r.deletedIDs, id)
	return nil
}

type sessionListStub struct {
	sessions  []models.PlanSession
	err       error
	gotPlanID string
	gotFilter repository.SessionFilter
}

func (r *sessionListStub) ListByPlan(_ context.Context, planID string, filter repository.SessionFilter) ([]models.PlanSession, error) {
	r.gotPlanID = planID
	r.gotFilter = filter
	return r.sessions, r.err
}

type cacheStub struct {
	cachedPlan *models.Plan
	setKey     string
	setErr     error
	deleted    []string
	deleteErr  error
}

func (c *cacheStub) Get(_ context.Context, _ string, dest interface{}) error {
	if c.cachedPlan == nil {
		return appErrors.ErrCacheMiss
	}
	if plan, ok := dest.(*models.Plan); ok {
		*plan = *c.cachedPlan
	}
	return nil
}

func (c *cacheStub) Set(_ context.Context, key string, _ interface{}, _ time.Duration) error {
	c.setKey = key
	return c.setErr
}

func (c *cacheStub) DeleteByPattern(_ context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	return c.deleteErr
}

func ownedPlanFixture(t *testing.T) *models.Plan {
	t.Helper()
	return &models.Plan{
		ID:        "plan-1",
		UserID:    "user-1",
		Name:      "Exam prep",
		StartDate: mustDate(t, "2026-03-02"),
		EndDate:   mustDate(t, "2026-03-09"),
		Status:    models.PlanStatusActive,
	}
}

func TestPlanServiceGetServesFromCache(t *testing.T) {
	repo := &planRepoStub{}
	cache := &cacheStub{cachedPlan: ownedPlanFixture(t)}
	svc := NewPlanService(repo, &sessionListStub{}, cache, 0, nil)

	plan, err := svc.Get(context.Background(), "user-1", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Zero(t, repo.findCalls, "cache hits never touch the repository")
}

func TestPlanServiceGetRejectsCachedPlanOfAnotherUser(t *testing.T) {
	cache := &cacheStub{cachedPlan: ownedPlanFixture(t)}
	svc := NewPlanService(&planRepoStub{}, &sessionListStub{}, cache, 0, nil)

	_, err := svc.Get(context.Background(), "user-2", "plan-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceGetLoadsAndCachesOnMiss(t *testing.T) {
	repo := &planRepoStub{plan: ownedPlanFixture(t)}
	cache := &cacheStub{}
	svc := NewPlanService(repo, &sessionListStub{}, cache, 0, nil)

	plan, err := svc.Get(context.Background(), "user-1", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, 1, repo.findCalls)
	assert.Equal(t, "plan:plan-1", cache.setKey)
}

func TestPlanServiceGetNotFound(t *testing.T) {
	repo := &planRepoStub{findErr: sql.ErrNoRows}
	svc := NewPlanService(repo, &sessionListStub{}, nil, 0, nil)

	_, err := svc.Get(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceListDefaultsPagination(t *testing.T) {
	repo := &planRepoStub{plans: []models.Plan{*ownedPlanFixture(t)}, total: 41}
	svc := NewPlanService(repo, &sessionListStub{}, nil, 0, nil)

	plans, pagination, err := svc.List(context.Background(), "user-1", dto.PlanListQuery{})
	require.NoError(t, err)
	assert.Len(t, plans, 1)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)
}

func TestPlanServiceListRejectsUnknownStatus(t *testing.T) {
	svc := NewPlanService(&planRepoStub{}, &sessionListStub{}, nil, 0, nil)

	_, _, err := svc.List(context.Background(), "user-1", dto.PlanListQuery{Status: "bogus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceSessionsAppliesFilters(t *testing.T) {
	repo := &planRepoStub{plan: ownedPlanFixture(t)}
	sessions := &sessionListStub{sessions: []models.PlanSession{{ID: "sess-1"}}}
	svc := NewPlanService(repo, sessions, nil, 0, nil)

	result, err := svc.Sessions(context.Background(), "user-1", "plan-1", dto.SessionListQuery{
		From:      "2026-03-02",
		To:        "2026-03-05",
		Revisions: "exclude",
	})
	require.NoError(t, err)
	assert.Len(t, result, 1)
	assert.Equal(t, "plan-1", sessions.gotPlanID)
	require.NotNil(t, sessions.gotFilter.From)
	assert.Equal(t, "2026-03-02", sessions.gotFilter.From.String())
	require.NotNil(t, sessions.gotFilter.To)
	assert.Equal(t, "2026-03-05", sessions.gotFilter.To.String())
	assert.Equal(t, "exclude", sessions.gotFilter.Revisions)
}

func TestPlanServiceSessionsRejectsMalformedDates(t *testing.T) {
	svc := NewPlanService(&planRepoStub{plan: ownedPlanFixture(t)}, &sessionListStub{}, nil, 0, nil)

	_, err := svc.Sessions(context.Background(), "user-1", "plan-1", dto.SessionListQuery{From: "03/02/2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceUpdateStatusInvalidatesCache(t *testing.T) {
	repo := &planRepoStub{plan: ownedPlanFixture(t)}
	cache := &cacheStub{}
	svc := NewPlanService(repo, &sessionListStub{}, cache, 0, nil)

	err := svc.UpdateStatus(context.Background(), "user-1", "plan-1", models.PlanStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.PlanStatusCompleted, repo.newStatus)
	assert.Equal(t, []string{"plan:plan-1*"}, cache.deleted)
}

func TestPlanServiceUpdateStatusRejectsUnknownState(t *testing.T) {
	svc := NewPlanService(&planRepoStub{plan: ownedPlanFixture(t)}, &sessionListStub{}, nil, 0, nil)

	err := svc.UpdateStatus(context.Background(), "user-1", "plan-1", models.PlanStatus("paused"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceDeleteChecksOwnership(t *testing.T) {
	repo := &planRepoStub{plan: ownedPlanFixture(t)}
	cache := &cacheStub{}
	svc := NewPlanService(repo, &sessionListStub{}, cache, 0, nil)

	err := svc.Delete(context.Background(), "user-2", "plan-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deletedIDs)

	err = svc.Delete(context.Background(), "user-1", "plan-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"plan-1"}, repo.deletedIDs)
	assert.Equal(t, []string{"plan:plan-1*"}, cache.deleted)
}
