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

type sessionMutator interface {
	Add(ctx context.Context, userID, planID string, req dto.CreateSessionRequest) (*models.PlanSession, error)
	Update(ctx context.Context, userID, sessionID string, req dto.UpdateSessionRequest) (*models.PlanSession, error)
	Delete(ctx context.Context, userID, sessionID string) error
}

// SessionHandler exposes session mutation endpoints.
type SessionHandler struct {
	sessions sessionMutator
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions sessionMutator) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create godoc
// @Summary Add a session to a plan
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /plans/{id}/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	session, err := h.sessions.Add(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Update godoc
// @Summary Update a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Session patch"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id} [patch]
func (h *SessionHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	session, err := h.sessions.Update(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Delete godoc
// @Summary Delete a session
// @Description Deleting a main session also removes its revision sessions.
// @Tags Sessions
// @Param id path string true "Session ID"
// @Success 204
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
