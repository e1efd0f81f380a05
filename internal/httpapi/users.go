package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"ngohub.org/internal/audit"
	"ngohub.org/internal/auth"
)

type updateUserRequest struct {
	Username       *string `json:"username"`
	Password       *string `json:"password"`
	OrganizationID *string `json:"organization_id"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type listUsersResponse struct {
	Items  []auth.Credential `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionList, auth.Resource{}); !ok {
		return
	}
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	items, err := a.svc.Store().ListCredentials(r.Context(), limit, offset)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listUsersResponse{Items: items, Limit: limit, Offset: offset})
}

// createUser is the admin path for registration; any role may be assigned.
func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionCreate, auth.Resource{}); !ok {
		return
	}
	a.register(w, r)
}

// loadUser fetches the addressed credential so a missing one yields 404 before authorization.
func (a *API) loadUser(w http.ResponseWriter, r *http.Request) (auth.Credential, bool) {
	cred, err := a.svc.Store().FindCredentialByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handleAuthError(w, r, err)
		return auth.Credential{}, false
	}
	return cred, true
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.loadUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionRead, auth.Resource{OwnerID: cred.ID, OrganizationID: cred.OrganizationID}); !ok {
		return
	}
	writeJSON(w, http.StatusOK, cred)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.loadUser(w, r)
	if !ok {
		return
	}
	p, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionUpdate, auth.Resource{OwnerID: cred.ID, OrganizationID: cred.OrganizationID})
	if !ok {
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.svc.UpdateProfile(r.Context(), p, cred.ID, auth.ProfileChange{
		LoginName:      req.Username,
		Password:       req.Password,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventUserUpdated, map[string]any{
		"credential_id":    cred.ID,
		"password_changed": req.Password != nil,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteUser(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.loadUser(w, r)
	if !ok {
		return
	}
	if _, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionDelete, auth.Resource{OwnerID: cred.ID, OrganizationID: cred.OrganizationID}); !ok {
		return
	}
	if err := a.svc.Store().DeleteCredential(r.Context(), cred.ID); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventUserDeleted, map[string]any{"credential_id": cred.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) setUserRole(w http.ResponseWriter, r *http.Request) {
	cred, ok := a.loadUser(w, r)
	if !ok {
		return
	}
	p, ok := a.authorize(w, r, auth.ResourceUsers, auth.ActionSetRole, auth.Resource{OwnerID: cred.ID, OrganizationID: cred.OrganizationID})
	if !ok {
		return
	}
	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	updated, err := a.svc.ChangeRole(r.Context(), p, cred.ID, role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventRoleChanged, map[string]any{
		"credential_id": cred.ID,
		"from":          cred.Role.String(),
		"to":            updated.Role.String(),
	})
	writeJSON(w, http.StatusOK, updated)
}
