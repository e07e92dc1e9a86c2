package server

import (
	"net/http"

	"droscher.com/BeanJournal/pkg/model"
)

type updateReferencesRequest struct {
	Action        string `json:"action"`
	ReplacementID *int   `json:"replacement_id"`
}

func (s *JournalServer) registerLookupRoutes(mux *http.ServeMux) {
	for _, kind := range model.LookupKinds {
		prefix := "/api/" + string(kind)
		routes := lookupRoutes{server: s, kind: kind}

		s.handle(mux, "GET "+prefix, routes.list)
		s.handle(mux, "POST "+prefix, routes.create)
		s.handle(mux, "GET "+prefix+"/search", routes.search)
		s.handle(mux, "GET "+prefix+"/default", routes.defaultRecord)
		s.handle(mux, "GET "+prefix+"/smart_default", routes.smartDefault)
		s.handle(mux, "GET "+prefix+"/{id}", routes.get)
		s.handle(mux, "PUT "+prefix+"/{id}", routes.update)
		s.handle(mux, "DELETE "+prefix+"/{id}", routes.remove)
		s.handle(mux, "POST "+prefix+"/{id}/set_default", routes.setDefault)
		s.handle(mux, "POST "+prefix+"/{id}/clear_default", routes.clearDefault)
		s.handle(mux, "GET "+prefix+"/{id}/usage", routes.usage)
		s.handle(mux, "POST "+prefix+"/{id}/update_references", routes.updateReferences)
	}

	s.handle(mux, "GET /api/grinders/{id}/stats", s.grinderStats)
}

// lookupRoutes serves the routes of one lookup kind.
type lookupRoutes struct {
	server *JournalServer
	kind   model.LookupKind
}

func (l lookupRoutes) list(w http.ResponseWriter, r *http.Request) error {
	records, err := l.server.journal.ListLookups(r.Context(), l.kind)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, records)

	return nil
}

func (l lookupRoutes) search(w http.ResponseWriter, r *http.Request) error {
	records, err := l.server.journal.SearchLookups(r.Context(), l.kind, r.URL.Query().Get("q"))
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, records)

	return nil
}

func (l lookupRoutes) defaultRecord(w http.ResponseWriter, r *http.Request) error {
	record, err := l.server.journal.DefaultLookup(r.Context(), l.kind)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, record)

	return nil
}

func (l lookupRoutes) smartDefault(w http.ResponseWriter, r *http.Request) error {
	record, err := l.server.journal.SmartDefault(r.Context(), l.kind)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, record)

	return nil
}

func (l lookupRoutes) get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	record, err := l.server.journal.GetLookup(r.Context(), l.kind, id)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, record)

	return nil
}

func (l lookupRoutes) create(w http.ResponseWriter, r *http.Request) error {
	var record model.Lookup
	if err := decode(r, &record); err != nil {
		return err
	}

	record.Base = model.Base{}

	created, err := l.server.journal.CreateLookup(r.Context(), l.kind, record)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusCreated, created)

	return nil
}

func (l lookupRoutes) update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var record model.Lookup
	if err := decode(r, &record); err != nil {
		return err
	}

	updated, err := l.server.journal.UpdateLookup(r.Context(), l.kind, id, record)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, updated)

	return nil
}

func (l lookupRoutes) remove(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	if err := l.server.journal.DeleteLookup(r.Context(), l.kind, id); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)

	return nil
}

func (l lookupRoutes) setDefault(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	record, err := l.server.journal.SetDefault(r.Context(), l.kind, id)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, record)

	return nil
}

func (l lookupRoutes) clearDefault(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	record, err := l.server.journal.ClearDefault(r.Context(), l.kind, id)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, record)

	return nil
}

func (l lookupRoutes) usage(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	usage, err := l.server.journal.Usage(r.Context(), l.kind, id)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, usage)

	return nil
}

func (l lookupRoutes) updateReferences(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	var request updateReferencesRequest
	if err := decode(r, &request); err != nil {
		return err
	}

	result, err := l.server.journal.UpdateReferences(r.Context(), l.kind, id, request.Action, request.ReplacementID)
	if err != nil {
		return err
	}

	l.server.writeJSON(w, http.StatusOK, result)

	return nil
}

func (s *JournalServer) grinderStats(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	stats, err := s.journal.GrinderStats(r.Context(), id)
	if err != nil {
		return err
	}

	s.writeJSON(w, http.StatusOK, stats)

	return nil
}
