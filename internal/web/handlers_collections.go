package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetdb/internal/core"
)

// collectionInfo describes a registered collection to API clients.
type collectionInfo struct {
	Name    core.Collection `json:"name"`
	Label   string          `json:"label"`
	IDField string          `json:"idField,omitempty"`
	Fields  []string        `json:"fields"`
}

func collectionParam(r *http.Request) core.Collection {
	return core.Collection(chi.URLParam(r, "collection"))
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	defs := s.engine.Registry().All()
	infos := make([]collectionInfo, 0, len(defs))
	for _, def := range defs {
		infos = append(infos, collectionInfo{
			Name:    def.Name,
			Label:   def.Label,
			IDField: def.IDField,
			Fields:  def.Fields,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": infos})
}

func (s *Server) handleGetAll(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	records, err := s.engine.GetAll(r.Context(), collection)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": collection,
		"count":      len(records),
		"records":    records,
	})
}

func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request) {
	collection := collectionParam(r)
	id := chi.URLParam(r, "id")

	rec, ok, err := s.engine.GetByID(r.Context(), id, collection)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		respondError(w, r, &core.OpError{Op: "getById", Collection: collection, ID: id, Err: core.ErrNotFound})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, err := s.decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	stored, err := s.engine.Create(r.Context(), rec, collectionParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": stored})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	updates, err := s.decodeRecord(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	merged, err := s.engine.Update(r.Context(), chi.URLParam(r, "id"), updates, collectionParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": merged})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Delete(r.Context(), chi.URLParam(r, "id"), collectionParam(r)); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Probe(r.Context(), collectionParam(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (core.Record, error) {
	body, err := readBody(w, r)
	if err != nil {
		return nil, err
	}
	return recordFromJSON(body)
}
