package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jbweber/lvmpool/internal/lvm"
	"github.com/jbweber/lvmpool/internal/units"
)

type createVolumeRequest struct {
	UUID  string       `json:"uuid,omitempty"`
	Pool  string       `json:"pool"`
	Size  sizeField    `json:"size"`
	Thin  bool         `json:"thin,omitempty"`
	Share lvm.Protocol `json:"share,omitempty"`
}

// sizeField accepts either a byte count or a size string such as "10GiB".
type sizeField uint64

func (f *sizeField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := units.ParseSize(s)
		if err != nil {
			return err
		}
		*f = sizeField(n)
		return nil
	}

	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid size %s: %w", data, err)
	}
	*f = sizeField(n)
	return nil
}

func (s *Server) listVolumes(w http.ResponseWriter, r *http.Request) {
	var (
		replicas []*lvm.Replica
		err      error
	)
	if pool := r.URL.Query().Get("pool"); pool != "" {
		replicas, err = s.volumes.ListByPool(r.Context(), pool)
	} else {
		replicas, err = s.volumes.List(r.Context())
	}
	if err != nil {
		writeLVMError(w, err)
		return
	}
	if replicas == nil {
		replicas = []*lvm.Replica{}
	}
	writeJSON(w, http.StatusOK, replicas)
}

func (s *Server) createVolume(w http.ResponseWriter, r *http.Request) {
	var body createVolumeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, lvm.KindInvalidRequest, "invalid request body: "+err.Error())
		return
	}

	req := lvm.CreateVolumeRequest{
		UUID:  body.UUID,
		Pool:  body.Pool,
		Size:  uint64(body.Size),
		Thin:  body.Thin,
		Share: body.Share,
	}
	if req.UUID == "" {
		req.UUID = s.newUUID()
	}

	replica, err := s.volumes.Create(r.Context(), req)
	if err != nil {
		writeLVMError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, replica)
}

func (s *Server) getVolume(w http.ResponseWriter, r *http.Request) {
	replica, err := s.volumes.Get(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		writeLVMError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, replica)
}

func (s *Server) removeVolume(w http.ResponseWriter, r *http.Request) {
	if err := s.volumes.Remove(r.Context(), chi.URLParam(r, "uuid")); err != nil {
		writeLVMError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
