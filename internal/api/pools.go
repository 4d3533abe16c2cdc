package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/lvmpool/internal/lvm"
)

type createPoolRequest struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

func (s *Server) listPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.pools.List(r.Context())
	if err != nil {
		writeLVMError(w, err)
		return
	}
	if pools == nil {
		pools = []*lvm.Pool{}
	}
	writeJSON(w, http.StatusOK, pools)
}

func (s *Server) createPool(w http.ResponseWriter, r *http.Request) {
	var req createPoolRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, lvm.KindInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	pool, err := s.pools.Create(r.Context(), req.Name, req.Devices)
	if err != nil {
		writeLVMError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	pool, err := s.pools.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeLVMError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (s *Server) removePool(w http.ResponseWriter, r *http.Request) {
	if err := s.pools.Remove(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeLVMError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
