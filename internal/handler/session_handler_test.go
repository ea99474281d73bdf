package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/models"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
)

type sessionMutatorStub struct {
	session *models.PlanSession
	err     error
	gotPlan string
	gotID   string
	gotAdd  dto.CreateSessionRequest
	deleted string
}

func (s *sessionMutatorStub) Add(_ context.Context, _, planID string, req dto.CreateSessionRequest) (*models.PlanSession, error) {
	s.gotPlan = planID
	s.gotAdd = req
	return s.session, s.err
}

func (s *sessionMutatorStub) Update(_ context.Context, _, sessionID string, _ dto.UpdateSessionRequest) (*models.PlanSession, error) {
	s.gotID = sessionID
	return s.session, s.err
}

func (s *sessionMutatorStub) Delete(_ context.Context, _, sessionID string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = sessionID
	return nil
}

func TestSessionHandlerCreate(t *testing.T) {
	stub := &sessionMutatorStub{session: &models.PlanSession{ID: "sess-1", PlanID: "plan-1"}}
	h := NewSessionHandler(stub)

	payload := `{"subjectId":"subj-1","date":"2026-03-04","startTime":"18:00","durationMinutes":45}`
	c, w := newTestContext(t, http.MethodPost, "/plans/plan-1/sessions", payload, true)
	c.Params = gin.Params{{Key: "id", Value: "plan-1"}}

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "plan-1", stub.gotPlan)
	assert.Equal(t, "subj-1", stub.gotAdd.SubjectID)

	env := decodeEnvelope(t, w)
	var session models.PlanSession
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Equal(t, "sess-1", session.ID)
}

func TestSessionHandlerCreateRequiresAuthentication(t *testing.T) {
	h := NewSessionHandler(&sessionMutatorStub{})
	c, w := newTestContext(t, http.MethodPost, "/plans/plan-1/sessions", `{}`, false)

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionHandlerCreateRejectsMalformedBody(t *testing.T) {
	h := NewSessionHandler(&sessionMutatorStub{})
	c, w := newTestContext(t, http.MethodPost, "/plans/plan-1/sessions", `{"subjectId":`, true)

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandlerUpdate(t *testing.T) {
	stub := &sessionMutatorStub{session: &models.PlanSession{ID: "sess-1", DurationMinutes: 90}}
	h := NewSessionHandler(stub)

	c, w := newTestContext(t, http.MethodPatch, "/sessions/sess-1", `{"durationMinutes":90}`, true)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sess-1", stub.gotID)
}

func TestSessionHandlerUpdatePropagatesNotFound(t *testing.T) {
	stub := &sessionMutatorStub{err: appErrors.Clone(appErrors.ErrNotFound, "session not found")}
	h := NewSessionHandler(stub)

	c, w := newTestContext(t, http.MethodPatch, "/sessions/missing", `{"durationMinutes":90}`, true)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	h.Update(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerDelete(t *testing.T) {
	stub := &sessionMutatorStub{}
	h := NewSessionHandler(stub)

	c, w := newTestContext(t, http.MethodDelete, "/sessions/sess-1", "", true)
	c.Params = gin.Params{{Key: "id", Value: "sess-1"}}

	h.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "sess-1", stub.deleted)
}
