package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
	"github.com/estudai/smart-plan-api/pkg/response"
)

const maxPlanSubjects = 256

type planGenerator interface {
	Generate(ctx context.Context, userID string, req dto.GeneratePlanRequest) (*dto.GeneratePlanResponse, error)
}

type planReader interface {
	Get(ctx context.Context, userID, planID string) (*models.Plan, error)
	List(ctx context.Context, userID string, query dto.PlanListQuery) ([]models.Plan, *models.Pagination, error)
	Sessions(ctx context.Context, userID, planID string, query dto.SessionListQuery) ([]models.PlanSession, error)
	UpdateStatus(ctx context.Context, userID, planID string, status models.PlanStatus) error
	Delete(ctx context.Context, userID, planID string) error
}

// PlanHandler exposes plan generation and lifecycle endpoints.
type PlanHandler struct {
	generator planGenerator
	plans     planReader
}

// NewPlanHandler constructs the handler.
func NewPlanHandler(generator planGenerator, plans planReader) *PlanHandler {
	return &PlanHandler{generator: generator, plans: plans}
}

// Generate godoc
// @Summary Generate a study plan
// @Description Ranks the selected subjects and fills the date range with study and revision sessions.
// @Tags Plans
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Generate plan payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /plans [post]
func (h *PlanHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	if len(req.SubjectIDs) > maxPlanSubjects {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "subjectIds exceeds supported limit"))
		return
	}

	result, err := h.generator.Generate(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List the user's plans
// @Tags Plans
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.PlanListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid list query"))
		return
	}

	plans, pagination, err := h.plans.List(c.Request.Context(), claims.UserID, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plans, pagination)
}

// Get godoc
// @Summary Get a plan summary
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// Sessions godoc
// @Summary List a plan's sessions
// @Tags Plans
// @Produce json
// @Param id path string true "Plan ID"
// @Param from query string false "Start date filter (YYYY-MM-DD)"
// @Param to query string false "End date filter (YYYY-MM-DD)"
// @Param revisions query string false "only or exclude"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id}/sessions [get]
func (h *PlanHandler) Sessions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.SessionListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sessions query"))
		return
	}

	sessions, err := h.plans.Sessions(c.Request.Context(), claims.UserID, c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// UpdateStatus godoc
// @Summary Update a plan's lifecycle status
// @Tags Plans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.UpdatePlanStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id}/status [patch]
func (h *PlanHandler) UpdateStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdatePlanStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}

	if err := h.plans.UpdateStatus(c.Request.Context(), claims.UserID, c.Param("id"), models.PlanStatus(req.Status)); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": req.Status}, nil)
}

// Delete godoc
// @Summary Delete a plan and its sessions
// @Tags Plans
// @Param id path string true "Plan ID"
// @Success 204
// @Security BearerAuth
// @Router /plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.plans.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
