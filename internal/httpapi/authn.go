package httpapi

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"ngohub.org/internal/auth"
	"ngohub.org/internal/obs"
)

const authHeader = "Authorization"

// requireAuth resolves the live principal before calling next.
func (a *API) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.authn.Authenticate(r.Context(), r.Header.Get(authHeader))
		if err != nil {
			a.rejectAuth(w, r, err)
			return
		}
		obs.CountAuthDecision("authenticated")
		next(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), p)))
	})
}

// optionalAuth attaches a principal when an Authorization header is present.
// A header that fails authentication is rejected like on protected routes.
func (a *API) optionalAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(authHeader) == "" {
			next(w, r)
			return
		}
		a.requireAuth(next).ServeHTTP(w, r)
	})
}

func authOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingCredential):
		return "missing_credential"
	case errors.Is(err, auth.ErrMalformedCredential):
		return "malformed_credential"
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrTokenInvalid):
		return "token_invalid"
	case errors.Is(err, auth.ErrPrincipalNotFound):
		return "principal_not_found"
	}
	return "store_error"
}

// rejectAuth answers a failed authentication. The client sees a fixed message;
// the cause goes to the sampled log.
func (a *API) rejectAuth(w http.ResponseWriter, r *http.Request, err error) {
	outcome := authOutcome(err)
	obs.LogAuthRejection(outcome, logrus.Fields{
		"request_id": RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote":     clientIP(r),
		"reason":     err.Error(),
	})
	switch outcome {
	case "missing_credential":
		writeError(w, r, http.StatusUnauthorized, "no token provided")
	case "malformed_credential":
		writeError(w, r, http.StatusUnauthorized, "invalid token format")
	case "token_expired", "token_invalid":
		writeError(w, r, http.StatusBadRequest, "invalid token")
	case "principal_not_found":
		writeError(w, r, http.StatusNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "authentication error")
	}
}

// authorize checks the policy rule for resource/action against res.
// It writes the denial itself and reports whether the caller may proceed.
func (a *API) authorize(w http.ResponseWriter, r *http.Request, resource string, action auth.Action, res auth.Resource) (auth.Principal, bool) {
	p, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "no token provided")
		return auth.Principal{}, false
	}
	rule := auth.RuleFor(resource, action)
	if err := auth.Authorize(p, rule, res); err != nil {
		obs.CountAuthDecision("forbidden")
		obs.Logger().WithFields(logrus.Fields{
			"request_id": RequestIDFromContext(r.Context()),
			"user_id":    p.ID,
			"role":       p.Role.String(),
			"resource":   resource,
			"action":     string(action),
			"rule":       rule.String(),
		}).Debug("authorization denied")
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return p, false
	}
	return p, true
}

// handleAuthError maps auth package errors to HTTP responses.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrValidation):
		writeError(w, r, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, auth.ErrPrincipalNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "username already exists")
	case errors.Is(err, auth.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	default:
		obs.Logger().WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("auth operation failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
