package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/rfq-procurement/internal/application/service"
	"github.com/garyjia/rfq-procurement/internal/currency"
	"github.com/garyjia/rfq-procurement/internal/domain/workflow"
)

const actorContextKey = "actor"

// actorMiddleware resolves the acting identity from request headers.
// Authentication itself happens upstream; these headers are trusted
// gateway-provided claims.
func actorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := workflow.Actor{
			ID:        c.GetHeader("X-Actor-Id"),
			Role:      workflow.Role(c.GetHeader("X-Actor-Role")),
			CompanyID: c.GetHeader("X-Company-Id"),
		}

		if actor.ID == "" || !actor.Role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing or invalid actor headers",
			})
			return
		}
		if actor.Role == workflow.RoleSystem {
			// The system identity is reserved for internal schedulers
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "system role is not accepted over HTTP",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

func requestActor(c *gin.Context) workflow.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(workflow.Actor); ok {
			return actor
		}
	}
	return workflow.Actor{}
}

// statusForError maps domain failures onto HTTP statuses
func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrInvalidState),
		errors.Is(err, workflow.ErrGuardFailed),
		errors.Is(err, service.ErrNegotiationClosed),
		errors.Is(err, service.ErrOutOfTurn),
		errors.Is(err, currency.ErrRateUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
