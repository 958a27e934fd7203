package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/garyjia/rfq-procurement/internal/application/service"
	"github.com/garyjia/rfq-procurement/internal/currency"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

func actorTestRouter(capture *workflow.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(actorMiddleware())
	r.GET("/probe", func(c *gin.Context) {
		*capture = requestActor(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestActorMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		headers        map[string]string
		expectedStatus int
	}{
		{
			name: "valid buyer headers",
			headers: map[string]string{
				"X-Actor-Id":   "u1",
				"X-Actor-Role": "buyer",
				"X-Company-Id": "buyer-co",
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name: "missing actor id",
			headers: map[string]string{
				"X-Actor-Role": "buyer",
				"X-Company-Id": "buyer-co",
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown role",
			headers: map[string]string{
				"X-Actor-Id":   "u1",
				"X-Actor-Role": "auditor",
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "no headers",
			headers:        map[string]string{},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "system role rejected",
			headers: map[string]string{
				"X-Actor-Id":   "system",
				"X-Actor-Role": "system",
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor workflow.Actor
			router := actorTestRouter(&actor)

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Equal(t, "u1", actor.ID)
				assert.Equal(t, workflow.RoleBuyer, actor.Role)
				assert.Equal(t, "buyer-co", actor.CompanyID)
			}
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", workflow.ErrNotFound, http.StatusNotFound},
		{"unauthorized", workflow.ErrUnauthorized, http.StatusForbidden},
		{"conflict", workflow.ErrConflict, http.StatusConflict},
		{"invalid transition", workflow.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{"invalid state", workflow.ErrInvalidState, http.StatusUnprocessableEntity},
		{"guard failed", workflow.ErrGuardFailed, http.StatusUnprocessableEntity},
		{"negotiation closed", service.ErrNegotiationClosed, http.StatusUnprocessableEntity},
		{"out of turn", service.ErrOutOfTurn, http.StatusUnprocessableEntity},
		{"rate unavailable", currency.ErrRateUnavailable, http.StatusUnprocessableEntity},
		{"wrapped sentinel", fmt.Errorf("loading entity: %w", workflow.ErrNotFound), http.StatusNotFound},
		{"unknown error", errors.New("database is locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusForError(tt.err))
		})
	}
}
