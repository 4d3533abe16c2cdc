package lvm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jbweber/lvmpool/internal/log"
	"github.com/jbweber/lvmpool/internal/naming"
)

// Publisher mirrors pools into another system, such as a libvirt logical
// storage pool. Publisher failures are logged and never fail an LVM
// operation.
type Publisher interface {
	PublishPool(ctx context.Context, pool Pool) error
	UnpublishPool(ctx context.Context, name string) error
	RefreshPool(ctx context.Context, name string) error
}

// Manager groups the pool and volume managers, which share one invoker and
// one set of locks.
type Manager struct {
	Pools   *PoolManager
	Volumes *VolumeManager
}

// Option configures a Manager.
type Option func(*core)

// WithBinary runs every subcommand through a multiplexer binary, so that
// "vgs ..." becomes "<binary> vgs ...".
func WithBinary(binary string) Option {
	return func(c *core) {
		c.inv.binary = binary
	}
}

// WithDevDir sets the directory device-node URIs are built under.
func WithDevDir(dir string) Option {
	return func(c *core) {
		if dir != "" {
			c.devDir = dir
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *core) {
		c.logger = logger
		c.inv.logger = logger
	}
}

// WithPublisher mirrors pool lifecycle events to p.
func WithPublisher(p Publisher) Option {
	return func(c *core) {
		c.publisher = p
	}
}

// WithListConcurrency bounds the number of pools read in parallel by
// PoolManager.List. Values below 1 mean sequential.
func WithListConcurrency(n int) Option {
	return func(c *core) {
		if n < 1 {
			n = 1
		}
		c.listConcurrency = n
	}
}

// WithAllowUnsupported makes volume create accept thin and share requests
// and ignore them with a warning instead of rejecting them.
func WithAllowUnsupported(allow bool) Option {
	return func(c *core) {
		c.allowUnsupported = allow
	}
}

// NewManager creates pool and volume managers that run LVM through runner.
func NewManager(runner Runner, opts ...Option) *Manager {
	logger := log.WithComponent("lvm")
	c := &core{
		inv:             &invoker{runner: runner, logger: logger},
		devDir:          naming.DefaultDevDir,
		logger:          logger,
		locks:           newKeyedMutex(),
		listConcurrency: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	return &Manager{
		Pools:   &PoolManager{c: c},
		Volumes: &VolumeManager{c: c},
	}
}

// core is the state shared by both managers.
type core struct {
	inv              *invoker
	devDir           string
	logger           zerolog.Logger
	locks            *keyedMutex
	publisher        Publisher
	listConcurrency  int
	allowUnsupported bool
}

func (c *core) publish(ctx context.Context, pool Pool) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishPool(ctx, pool); err != nil {
		c.logger.Warn().Err(err).Str("pool", pool.Name).Msg("failed to publish pool")
	}
}

func (c *core) unpublish(ctx context.Context, name string) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.UnpublishPool(ctx, name); err != nil {
		c.logger.Warn().Err(err).Str("pool", name).Msg("failed to unpublish pool")
	}
}

func (c *core) refresh(ctx context.Context, name string) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.RefreshPool(ctx, name); err != nil {
		c.logger.Warn().Err(err).Str("pool", name).Msg("failed to refresh published pool")
	}
}
