package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinetix/cinema-booking-system/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

func (app *Application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				w.Header().Set("Connection", "close")

				app.serverErrorResponse(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authenticate resolves the caller from the bearer token issued by the
// external auth service. Only the token signature and claims are checked
// here; credentials never reach this service.
func (app *Application) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authorizationHeader, "Bearer ") {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		token := strings.TrimPrefix(authorizationHeader, "Bearer ")

		actor, err := app.parseActorToken(token)
		if err != nil {
			app.unauthorizedAccessResponse(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorContextKey, actor)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *Application) parseActorToken(token string) (domain.Actor, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(app.config.JWT.Secret), nil
	})

	if err != nil || !parsed.Valid {
		return domain.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Actor{}, fmt.Errorf("unexpected claims format")
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return domain.Actor{}, err
	}

	id, err := strconv.Atoi(subject)
	if err != nil || id < 1 {
		return domain.Actor{}, fmt.Errorf("invalid subject claim")
	}

	role, _ := claims["role"].(string)

	switch domain.Role(role) {
	case domain.RoleCustomer, domain.RoleStaff:
	default:
		return domain.Actor{}, fmt.Errorf("invalid role claim")
	}

	return domain.Actor{ID: id, Role: domain.Role(role)}, nil
}

func (app *Application) requireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := app.contextGetActor(r)
		if !actor.IsCustomer() {
			app.forbiddenAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *Application) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := app.contextGetActor(r)
		if !actor.IsStaff() {
			app.forbiddenAccessResponse(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
