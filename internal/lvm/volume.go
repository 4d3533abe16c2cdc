package lvm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"

	"github.com/jbweber/lvmpool/internal/metrics"
	"github.com/jbweber/lvmpool/internal/naming"
)

// VolumeManager manages the lifecycle of replicas (LVM logical volumes).
type VolumeManager struct {
	c *core
}

// Create creates a thick logical volume named req.UUID in req.Pool.
//
// The returned replica is built from the request; LVM is not queried
// again. Thin and Share requests are rejected unless the manager was
// created WithAllowUnsupported, in which case they are ignored. Once
// lvcreate starts, cancelling ctx does not interrupt it.
func (m *VolumeManager) Create(ctx context.Context, req CreateVolumeRequest) (_ *Replica, err error) {
	defer func() { metrics.ObserveOperation("volume_create", err) }()

	if err := req.Validate(); err != nil {
		return nil, invalidRequest(err)
	}

	logger := m.c.logger.With().Str("pool", req.Pool).Str("volume", req.UUID).Logger()

	if req.unsupported() {
		if !m.c.allowUnsupported {
			return nil, invalidRequest(fmt.Errorf("thin provisioning and sharing are not supported (thin=%t, share=%s)", req.Thin, req.Share))
		}
		logger.Warn().Bool("thin", req.Thin).Stringer("share", req.Share).Msg("ignoring unsupported volume options")
	}

	unlockPool := m.c.locks.Lock(poolKey(req.Pool))
	defer unlockPool()
	unlockVolume := m.c.locks.Lock(volumeKey(req.UUID))
	defer unlockVolume()

	ctx = context.WithoutCancel(ctx)
	size := strconv.FormatUint(req.Size, 10) + "b"
	if _, err := m.c.inv.run(ctx, "lvcreate", "-L", size, "-n", req.UUID, req.Pool); err != nil {
		return nil, fmt.Errorf("failed to create volume %q in pool %q: %w", req.UUID, req.Pool, err)
	}

	logger.Info().Uint64("size", req.Size).Msg("volume created")
	m.c.refresh(ctx, req.Pool)

	return &Replica{
		UUID:  req.UUID,
		Pool:  req.Pool,
		Size:  req.Size,
		Thin:  false,
		Share: ProtocolNone,
		URI:   naming.DeviceURI(m.c.devDir, req.Pool, req.UUID),
	}, nil
}

// List returns every logical volume on the host, in lvs order.
func (m *VolumeManager) List(ctx context.Context) ([]*Replica, error) {
	out, err := m.c.inv.run(ctx, "lvs",
		"--reportformat", "json", "--units", "b", "--nosuffix",
		"-o", "lv_name,vg_name,lv_size")
	if err != nil {
		return nil, fmt.Errorf("failed to list volumes: %w", err)
	}
	records, err := decodeVolumes(out)
	if err != nil {
		return nil, err
	}

	return lo.Map(records, func(r volumeRecord, _ int) *Replica {
		return &Replica{
			UUID:  r.Name,
			Pool:  r.Pool,
			Size:  r.Size,
			Share: ProtocolNone,
			URI:   naming.DeviceURI(m.c.devDir, r.Pool, r.Name),
		}
	}), nil
}

// ListByPool returns the logical volumes of one pool.
func (m *VolumeManager) ListByPool(ctx context.Context, pool string) ([]*Replica, error) {
	if err := naming.ValidatePoolName(pool); err != nil {
		return nil, invalidRequest(err)
	}
	replicas, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(replicas, func(r *Replica, _ int) bool {
		return r.Pool == pool
	}), nil
}

// Get returns the volume named uuid, searching every pool.
func (m *VolumeManager) Get(ctx context.Context, uuid string) (*Replica, error) {
	if err := naming.ValidateVolumeName(uuid); err != nil {
		return nil, invalidRequest(err)
	}
	replicas, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	replica, ok := lo.Find(replicas, func(r *Replica) bool {
		return r.UUID == uuid
	})
	if !ok {
		return nil, &NotFoundError{Resource: "volume", Name: uuid}
	}
	return replica, nil
}

// Remove deletes the volume named uuid. The owning pool is resolved with
// Get first; any lookup error aborts the removal. The volume is addressed
// as <pool>/<uuid>, independent of the configured device directory, and
// lvremove is not interrupted by cancelling ctx.
func (m *VolumeManager) Remove(ctx context.Context, uuid string) (err error) {
	defer func() { metrics.ObserveOperation("volume_remove", err) }()

	replica, err := m.Get(ctx, uuid)
	if err != nil {
		return err
	}

	unlockPool := m.c.locks.Lock(poolKey(replica.Pool))
	defer unlockPool()
	unlockVolume := m.c.locks.Lock(volumeKey(uuid))
	defer unlockVolume()

	ctx = context.WithoutCancel(ctx)
	if _, err := m.c.inv.run(ctx, "lvremove", "-f", replica.Pool+"/"+uuid); err != nil {
		return fmt.Errorf("failed to remove volume %q from pool %q: %w", uuid, replica.Pool, err)
	}

	m.c.logger.Info().Str("pool", replica.Pool).Str("volume", uuid).Msg("volume removed")
	m.c.refresh(ctx, replica.Pool)
	return nil
}
