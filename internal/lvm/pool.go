package lvm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/jbweber/lvmpool/internal/metrics"
	"github.com/jbweber/lvmpool/internal/naming"
)

// PoolManager manages the lifecycle of pools (LVM volume groups).
type PoolManager struct {
	c *core
}

// Create initializes devices as physical volumes, creates a volume group
// named name on them and returns the pool as read back from LVM.
//
// The steps are not rolled back: if vgcreate fails the devices stay
// initialized, and if the read back fails the pool exists. Cancelling ctx
// does not interrupt the steps; each is bounded by the runner's timeout.
func (m *PoolManager) Create(ctx context.Context, name string, devices []string) (_ *Pool, err error) {
	defer func() { metrics.ObserveOperation("pool_create", err) }()

	if err := validatePoolRequest(name, devices); err != nil {
		return nil, invalidRequest(err)
	}
	ctx = context.WithoutCancel(ctx)

	unlock := m.c.locks.Lock(poolKey(name))
	defer unlock()

	logger := m.c.logger.With().Str("pool", name).Logger()

	// Initialize the devices
	logger.Debug().Strs("devices", devices).Msg("initializing devices")
	if _, err := m.c.inv.run(ctx, "pvcreate", devices...); err != nil {
		return nil, fmt.Errorf("failed to initialize devices %v: %w", devices, err)
	}

	// Create the volume group
	args := append([]string{name}, devices...)
	if _, err := m.c.inv.run(ctx, "vgcreate", args...); err != nil {
		logger.Warn().Strs("devices", devices).Msg("devices left initialized after failed pool create")
		return nil, fmt.Errorf("failed to create pool %q: %w", name, err)
	}

	// Read it back
	pool, err := m.get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("pool %q created but failed to read it back: %w", name, err)
	}

	logger.Info().Uint64("capacity", pool.Capacity).Msg("pool created")
	m.c.publish(ctx, *pool)
	return pool, nil
}

// Get returns the pool named name as currently reported by LVM.
func (m *PoolManager) Get(ctx context.Context, name string) (*Pool, error) {
	if err := validatePoolRequestName(name); err != nil {
		return nil, err
	}
	return m.get(ctx, name)
}

// get reads one pool without validating its name. Names coming from a
// vgs listing are already LVM's own.
func (m *PoolManager) get(ctx context.Context, name string) (*Pool, error) {
	out, err := m.c.inv.run(ctx, "vgs",
		"--reportformat", "json", "--units", "b", "--nosuffix",
		"-o", "vg_name,vg_size,vg_free", name)
	if err != nil {
		if isVGNotFound(err) {
			return nil, &NotFoundError{Resource: "pool", Name: name}
		}
		return nil, fmt.Errorf("failed to query pool %q: %w", name, err)
	}

	capacity, free, err := decodePoolSize(name, out)
	if err != nil {
		return nil, err
	}

	out, err = m.c.inv.run(ctx, "pvs", "--reportformat", "json", "-o", "pv_name,vg_name")
	if err != nil {
		return nil, fmt.Errorf("failed to query devices of pool %q: %w", name, err)
	}
	mapping, err := decodeDeviceMap(out)
	if err != nil {
		return nil, err
	}

	devices := lo.FilterMap(mapping, func(d deviceMapping, _ int) (string, bool) {
		return d.Device, d.Pool == name
	})

	metrics.SetPoolUsage(name, capacity, capacity-free)

	return &Pool{
		Name:     name,
		Devices:  devices,
		Capacity: capacity,
		Used:     capacity - free,
	}, nil
}

// List returns every pool LVM knows about, in the order vgs reports them.
// A pool removed between the listing and its read is left out.
func (m *PoolManager) List(ctx context.Context) ([]*Pool, error) {
	out, err := m.c.inv.run(ctx, "vgs", "--reportformat", "json", "-o", "vg_name")
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	names, err := decodePoolNames(out)
	if err != nil {
		return nil, err
	}

	pools := make([]*Pool, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.c.listConcurrency)
	for i, name := range names {
		g.Go(func() error {
			pool, err := m.get(gctx, name)
			if errors.Is(err, ErrNotFound) {
				// Removed after the listing
				m.c.logger.Debug().Str("pool", name).Msg("pool vanished while listing")
				return nil
			}
			if err != nil {
				return err
			}
			pools[i] = pool
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lo.Filter(pools, func(p *Pool, _ int) bool {
		return p != nil
	}), nil
}

// Remove deletes the volume group named name and releases its devices.
//
// The devices are looked up before anything is destroyed. If vgremove
// succeeds but pvremove fails, the pool is gone and the error says so.
// The published pool is only withdrawn once vgremove has succeeded.
func (m *PoolManager) Remove(ctx context.Context, name string) (err error) {
	defer func() { metrics.ObserveOperation("pool_remove", err) }()

	if err := validatePoolRequestName(name); err != nil {
		return err
	}

	unlock := m.c.locks.Lock(poolKey(name))
	defer unlock()

	logger := m.c.logger.With().Str("pool", name).Logger()

	// Resolve member devices
	pool, err := m.get(ctx, name)
	if err != nil {
		return err
	}

	ctx = context.WithoutCancel(ctx)

	// Remove the volume group
	if _, err := m.c.inv.run(ctx, "vgremove", name); err != nil {
		return fmt.Errorf("failed to remove pool %q: %w", name, err)
	}
	metrics.ForgetPool(name)
	m.c.unpublish(ctx, name)

	// Release the devices
	if len(pool.Devices) > 0 {
		if _, err := m.c.inv.run(ctx, "pvremove", pool.Devices...); err != nil {
			logger.Error().Err(err).Strs("devices", pool.Devices).Msg("pool removed but devices not released")
			return fmt.Errorf("pool %q removed but failed to release devices %v: %w", name, pool.Devices, err)
		}
	}

	logger.Info().Strs("devices", pool.Devices).Msg("pool removed")
	return nil
}

func validatePoolRequestName(name string) error {
	if err := naming.ValidatePoolName(name); err != nil {
		return invalidRequest(err)
	}
	return nil
}

// isVGNotFound reports whether a named vgs query failed because the
// volume group does not exist.
func isVGNotFound(err error) bool {
	var execErr *ExecError
	if !errors.As(err, &execErr) || execErr.Err != nil {
		return false
	}
	return strings.Contains(execErr.Stderr, "not found")
}
