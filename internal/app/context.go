package app

import (
	"net/http"

	"github.com/cinetix/cinema-booking-system/internal/domain"
)

type contextKey string

const actorContextKey = contextKey("actor")

func (app *Application) contextGetActor(r *http.Request) domain.Actor {
	actor, ok := r.Context().Value(actorContextKey).(domain.Actor)
	if !ok {
		panic("missing actor in request context")
	}

	return actor
}
