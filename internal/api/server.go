// Package api serves the pool and volume managers over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jbweber/lvmpool/internal/log"
	"github.com/jbweber/lvmpool/internal/lvm"
	"github.com/jbweber/lvmpool/internal/metrics"
)

// PoolService is the pool API the server depends on.
// *lvm.PoolManager satisfies it.
type PoolService interface {
	Create(ctx context.Context, name string, devices []string) (*lvm.Pool, error)
	Get(ctx context.Context, name string) (*lvm.Pool, error)
	List(ctx context.Context) ([]*lvm.Pool, error)
	Remove(ctx context.Context, name string) error
}

// VolumeService is the volume API the server depends on.
// *lvm.VolumeManager satisfies it.
type VolumeService interface {
	Create(ctx context.Context, req lvm.CreateVolumeRequest) (*lvm.Replica, error)
	Get(ctx context.Context, uuid string) (*lvm.Replica, error)
	List(ctx context.Context) ([]*lvm.Replica, error)
	ListByPool(ctx context.Context, pool string) ([]*lvm.Replica, error)
	Remove(ctx context.Context, uuid string) error
}

// Server holds the HTTP handlers.
type Server struct {
	pools   PoolService
	volumes VolumeService
	logger  zerolog.Logger
	newUUID func() string
}

// NewServer creates a server backed by pools and volumes.
func NewServer(pools PoolService, volumes VolumeService) *Server {
	return &Server{
		pools:   pools,
		volumes: volumes,
		logger:  log.WithComponent("api"),
		newUUID: uuid.NewString,
	}
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(zerologMiddleware(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/pools", s.listPools)
		r.Post("/pools", s.createPool)
		r.Get("/pools/{name}", s.getPool)
		r.Delete("/pools/{name}", s.removePool)

		r.Get("/volumes", s.listVolumes)
		r.Post("/volumes", s.createVolume)
		r.Get("/volumes/{uuid}", s.getVolume)
		r.Delete("/volumes/{uuid}", s.removeVolume)
	})

	return r
}
