package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"ngohub.org/internal/audit"
	"ngohub.org/internal/auth"
	"ngohub.org/internal/obs"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse keeps the same shape for success and failure.
type loginResponse struct {
	Auth  bool    `json:"auth"`
	Token *string `json:"token"`
}

type registerRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
}

type meResponse struct {
	Principal auth.Principal  `json:"principal"`
	User      auth.Credential `json:"user"`
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, loginResponse{})
		return
	}

	token, cred, err := a.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, auth.ErrValidation):
			code = http.StatusBadRequest
		case errors.Is(err, auth.ErrNotFound):
			code = http.StatusNotFound
		case errors.Is(err, auth.ErrBadCredentials):
			code = http.StatusUnauthorized
		default:
			obs.Logger().WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("login failed")
		}
		obs.CountAuthDecision("login_failed")
		_ = audit.LogEvent(r.Context(), audit.EventLogin, map[string]any{
			"username": strings.TrimSpace(req.Username),
			"success":  false,
			"status":   code,
		})
		writeJSON(w, code, loginResponse{})
		return
	}

	obs.CountAuthDecision("login")
	_ = audit.LogEvent(auth.ContextWithPrincipal(r.Context(), cred.Principal()), audit.EventLogin, map[string]any{
		"username": cred.LoginName,
		"success":  true,
	})
	writeJSON(w, http.StatusOK, loginResponse{Auth: true, Token: &token})
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	role := auth.RoleVolunteer
	if strings.TrimSpace(req.Role) != "" {
		parsed, err := auth.ParseRole(req.Role)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		role = parsed
	}

	var actor *auth.Principal
	if p, ok := auth.PrincipalFromContext(r.Context()); ok {
		actor = &p
	}

	cred, err := a.svc.Register(r.Context(), actor, auth.NewCredential{
		LoginName:      req.Username,
		Password:       req.Password,
		Role:           role,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			obs.CountAuthDecision("forbidden")
		}
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), audit.EventRegister, map[string]any{
		"credential_id": cred.ID,
		"username":      cred.LoginName,
		"role":          cred.Role.String(),
	})
	writeJSON(w, http.StatusCreated, cred)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFromContext(r.Context())
	cred, err := a.svc.Store().FindCredentialByID(r.Context(), p.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Principal: p, User: cred})
}
