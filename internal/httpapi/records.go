package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"ngohub.org/internal/audit"
	"ngohub.org/internal/auth"
	"ngohub.org/internal/ngo"
	"ngohub.org/internal/obs"
	"ngohub.org/internal/store"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

type listRecordsResponse struct {
	Items  []ngo.Record `json:"items"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

func parsePage(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = defaultPageLimit
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxPageLimit {
			return 0, 0, fmt.Errorf("limit must be between 1 and %d", maxPageLimit)
		}
	}
	if v := strings.TrimSpace(q.Get("offset")); v != "" {
		offset, err = strconv.Atoi(v)
		if err != nil || offset < 0 {
			return 0, 0, errors.New("offset must be >= 0")
		}
	}
	return limit, offset, nil
}

func recordResource(rec ngo.Record) auth.Resource {
	m := rec.Base()
	return auth.Resource{OrganizationID: m.OrganizationID, OwnerID: m.OwnerID}
}

func (a *API) listRecords(kind ngo.Kind) http.HandlerFunc {
	resource := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.PrincipalFromContext(r.Context())
		if _, ok := a.authorize(w, r, resource, auth.ActionList, auth.Resource{OrganizationID: p.OrganizationID}); !ok {
			return
		}
		limit, offset, err := parsePage(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		opts := store.ListOptions{Limit: limit, Offset: offset}
		if !p.IsAdmin() && auth.ScopedToOrganization(resource) {
			opts.OrganizationID = p.OrganizationID
		}
		items, err := a.records.ListRecords(r.Context(), kind, opts)
		if err != nil {
			handleRecordError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, listRecordsResponse{Items: items, Limit: limit, Offset: offset})
	}
}

func (a *API) createRecord(kind ngo.Kind) http.HandlerFunc {
	resource := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		p, _ := auth.PrincipalFromContext(r.Context())
		rec, err := ngo.New(kind)
		if err != nil {
			handleRecordError(w, r, err)
			return
		}
		if err := decodeJSON(w, r, rec); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		m := rec.Base()
		orgID := strings.TrimSpace(m.OrganizationID)
		if !p.IsAdmin() {
			orgID = p.OrganizationID
		}
		*m = ngo.Meta{OrganizationID: orgID, OwnerID: p.ID}

		if _, ok := a.authorize(w, r, resource, auth.ActionCreate, recordResource(rec)); !ok {
			return
		}
		if kind != ngo.KindOrganization && m.OrganizationID == "" {
			writeError(w, r, http.StatusBadRequest, "organization_id is required")
			return
		}
		if err := rec.Validate(); err != nil {
			handleRecordError(w, r, err)
			return
		}
		if err := a.checkReferences(r.Context(), rec); err != nil {
			handleRecordError(w, r, err)
			return
		}
		if err := a.records.CreateRecord(r.Context(), rec); err != nil {
			handleRecordError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventRecordCreated, map[string]any{
			"kind":            resource,
			"id":              m.ID,
			"organization_id": m.OrganizationID,
		})
		writeJSON(w, http.StatusCreated, rec)
	}
}

// loadRecord fetches the addressed record so a missing one yields 404 before authorization.
func (a *API) loadRecord(w http.ResponseWriter, r *http.Request, kind ngo.Kind) (ngo.Record, bool) {
	rec, err := a.records.GetRecord(r.Context(), kind, mux.Vars(r)["id"])
	if err != nil {
		handleRecordError(w, r, err)
		return nil, false
	}
	return rec, true
}

func (a *API) getRecord(kind ngo.Kind) http.HandlerFunc {
	resource := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := a.loadRecord(w, r, kind)
		if !ok {
			return
		}
		if _, ok := a.authorize(w, r, resource, auth.ActionRead, recordResource(rec)); !ok {
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// updateRecord merges the JSON body onto the stored record. Meta fields are kept.
func (a *API) updateRecord(kind ngo.Kind) http.HandlerFunc {
	resource := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := a.loadRecord(w, r, kind)
		if !ok {
			return
		}
		if _, ok := a.authorize(w, r, resource, auth.ActionUpdate, recordResource(rec)); !ok {
			return
		}
		stored := *rec.Base()
		if err := decodeJSON(w, r, rec); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		*rec.Base() = stored
		if err := rec.Validate(); err != nil {
			handleRecordError(w, r, err)
			return
		}
		if err := a.checkReferences(r.Context(), rec); err != nil {
			handleRecordError(w, r, err)
			return
		}
		if err := a.records.UpdateRecord(r.Context(), rec); err != nil {
			handleRecordError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventRecordUpdated, map[string]any{
			"kind": resource,
			"id":   stored.ID,
		})
		writeJSON(w, http.StatusOK, rec)
	}
}

func (a *API) deleteRecord(kind ngo.Kind) http.HandlerFunc {
	resource := string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		rec, ok := a.loadRecord(w, r, kind)
		if !ok {
			return
		}
		if _, ok := a.authorize(w, r, resource, auth.ActionDelete, recordResource(rec)); !ok {
			return
		}
		id := rec.Base().ID
		if err := a.records.DeleteRecord(r.Context(), kind, id); err != nil {
			handleRecordError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventRecordDeleted, map[string]any{
			"kind": resource,
			"id":   id,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}

// checkReferences rejects links to records outside rec's organization.
// A missing target and a foreign one produce the same error.
func (a *API) checkReferences(ctx context.Context, rec ngo.Record) error {
	org := rec.Base().OrganizationID
	for _, ref := range ngo.References(rec) {
		target, err := a.records.GetRecord(ctx, ref.Kind, ref.ID)
		switch {
		case errors.Is(err, ngo.ErrNotFound), err == nil && target.Base().OrganizationID != org:
			return fmt.Errorf("%w: %s must reference a record of the same organization", ngo.ErrInvalid, ref.Column)
		case err != nil:
			return err
		}
	}
	return nil
}

func handleRecordError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ngo.ErrInvalid):
		writeError(w, r, http.StatusBadRequest, clientMessage(err))
	case errors.Is(err, ngo.ErrNotFound), errors.Is(err, ngo.ErrUnknownKind):
		writeError(w, r, http.StatusNotFound, "record not found")
	case errors.Is(err, ngo.ErrConflict):
		writeError(w, r, http.StatusConflict, clientMessage(err))
	default:
		obs.Logger().WithError(err).WithField("request_id", RequestIDFromContext(r.Context())).Error("record operation failed")
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
