package libvirt

import (
	"context"
	"fmt"
	"strings"

	"github.com/digitalocean/go-libvirt"
	"github.com/rs/zerolog"
	libvirtxml "libvirt.org/go/libvirtxml"

	"github.com/jbweber/lvmpool/internal/log"
	"github.com/jbweber/lvmpool/internal/lvm"
	"github.com/jbweber/lvmpool/internal/naming"
)

// StorageClient is the subset of the libvirt API used to publish pools.
// *libvirt.Libvirt satisfies it.
type StorageClient interface {
	StoragePoolDefineXML(XML string, Flags uint32) (libvirt.StoragePool, error)
	StoragePoolCreate(Pool libvirt.StoragePool, Flags libvirt.StoragePoolCreateFlags) error
	StoragePoolSetAutostart(Pool libvirt.StoragePool, Autostart int32) error
	StoragePoolGetAutostart(Pool libvirt.StoragePool) (rAutostart int32, err error)
	StoragePoolDestroy(Pool libvirt.StoragePool) error
	StoragePoolUndefine(Pool libvirt.StoragePool) error
	StoragePoolGetInfo(Pool libvirt.StoragePool) (rState uint8, rCapacity uint64, rAllocation uint64, rAvailable uint64, err error)
	StoragePoolGetXMLDesc(Pool libvirt.StoragePool, Flags libvirt.StorageXMLFlags) (string, error)
	StoragePoolRefresh(Pool libvirt.StoragePool, Flags uint32) error
	ConnectListAllStoragePools(NeedResults int32, Flags libvirt.ConnectListAllStoragePoolsFlags) ([]libvirt.StoragePool, uint32, error)
}

// PublishedPool is a libvirt logical pool backed by an LVM volume group.
type PublishedPool struct {
	Name        string `json:"name" yaml:"name"`
	VolumeGroup string `json:"volume_group" yaml:"volume_group"`
	State       string `json:"state" yaml:"state"`
	Autostart   bool   `json:"autostart" yaml:"autostart"`
	Capacity    uint64 `json:"capacity" yaml:"capacity"`
	Allocation  uint64 `json:"allocation" yaml:"allocation"`
	Available   uint64 `json:"available" yaml:"available"`
}

// PoolPublisher mirrors LVM pools into libvirt as "logical" storage pools,
// so that guests can reference lvmpool volumes by pool and volume name.
// It implements lvm.Publisher.
type PoolPublisher struct {
	client StorageClient
	devDir string
	logger zerolog.Logger
}

// NewPoolPublisher creates a publisher on top of client. devDir is the
// directory LVM creates volume group directories in; empty means /dev.
func NewPoolPublisher(client StorageClient, devDir string) *PoolPublisher {
	if devDir == "" {
		devDir = naming.DefaultDevDir
	}
	return &PoolPublisher{
		client: client,
		devDir: strings.TrimRight(devDir, "/"),
		logger: log.WithComponent("libvirt"),
	}
}

var _ lvm.Publisher = (*PoolPublisher)(nil)

// PublishPool defines, starts and autostarts a logical pool for pool.
// An already published pool is only started if it is inactive.
//
// The pool is not built: the volume group already exists and building a
// logical pool would try to create it again.
func (p *PoolPublisher) PublishPool(ctx context.Context, pool lvm.Pool) error {
	existing, found, err := p.find(pool.Name)
	if err != nil {
		return err
	}
	if found {
		return p.ensureRunning(existing)
	}

	poolXML, err := generateLogicalPoolXML(pool.Name, pool.Devices, p.devDir)
	if err != nil {
		return fmt.Errorf("failed to generate pool XML: %w", err)
	}

	// Define the pool
	lp, err := p.client.StoragePoolDefineXML(poolXML, 0)
	if err != nil {
		return fmt.Errorf("failed to define pool: %w", err)
	}

	// Start the pool
	if err := p.client.StoragePoolCreate(lp, 0); err != nil {
		// Try to undefine the pool if start fails
		_ = p.client.StoragePoolUndefine(lp)
		return fmt.Errorf("failed to start pool: %w", err)
	}

	// Set autostart
	if err := p.client.StoragePoolSetAutostart(lp, 1); err != nil {
		return fmt.Errorf("pool published but failed to set autostart: %w", err)
	}

	p.logger.Info().Str("pool", pool.Name).Msg("pool published to libvirt")
	return nil
}

// UnpublishPool stops and undefines the logical pool named name. A pool
// that was never published is not an error.
//
// It runs after the volume group is removed, so stopping the pool may fail
// on the missing group; the pool is undefined regardless.
func (p *PoolPublisher) UnpublishPool(ctx context.Context, name string) error {
	lp, found, err := p.find(name)
	if err != nil || !found {
		return err
	}

	// Stop the pool if it's running
	state, _, _, _, err := p.client.StoragePoolGetInfo(lp)
	if err == nil && libvirt.StoragePoolState(state) == libvirt.StoragePoolRunning {
		err = p.client.StoragePoolDestroy(lp)
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("pool", name).Msg("failed to stop pool, undefining anyway")
	}

	// Undefine the pool
	if err := p.client.StoragePoolUndefine(lp); err != nil {
		return fmt.Errorf("failed to undefine pool: %w", err)
	}

	p.logger.Info().Str("pool", name).Msg("pool unpublished from libvirt")
	return nil
}

// RefreshPool makes libvirt rescan the volumes of a published pool.
func (p *PoolPublisher) RefreshPool(ctx context.Context, name string) error {
	lp, found, err := p.find(name)
	if err != nil || !found {
		return err
	}
	if err := p.client.StoragePoolRefresh(lp, 0); err != nil {
		return fmt.Errorf("failed to refresh pool: %w", err)
	}
	return nil
}

// ListPublished returns every logical pool known to libvirt.
func (p *PoolPublisher) ListPublished(ctx context.Context) ([]PublishedPool, error) {
	pools, _, err := p.client.ConnectListAllStoragePools(1, libvirt.ConnectListStoragePoolsLogical)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}

	out := make([]PublishedPool, 0, len(pools))
	for _, lp := range pools {
		info, err := p.describe(lp)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", lp.Name, err)
		}
		out = append(out, *info)
	}
	return out, nil
}

func (p *PoolPublisher) describe(lp libvirt.StoragePool) (*PublishedPool, error) {
	state, capacity, allocation, available, err := p.client.StoragePoolGetInfo(lp)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool info: %w", err)
	}
	autostart, err := p.client.StoragePoolGetAutostart(lp)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool autostart: %w", err)
	}
	xmlDesc, err := p.client.StoragePoolGetXMLDesc(lp, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool XML: %w", err)
	}

	var def libvirtxml.StoragePool
	if err := def.Unmarshal(xmlDesc); err != nil {
		return nil, fmt.Errorf("failed to parse pool XML: %w", err)
	}
	vg := lp.Name
	if def.Source != nil && def.Source.Name != "" {
		vg = def.Source.Name
	}

	return &PublishedPool{
		Name:        lp.Name,
		VolumeGroup: vg,
		State:       stateName(libvirt.StoragePoolState(state)),
		Autostart:   autostart == 1,
		Capacity:    capacity,
		Allocation:  allocation,
		Available:   available,
	}, nil
}

// find looks a pool up by listing, so that a missing pool can be told
// apart from a failed call.
func (p *PoolPublisher) find(name string) (libvirt.StoragePool, bool, error) {
	pools, _, err := p.client.ConnectListAllStoragePools(1, 0)
	if err != nil {
		return libvirt.StoragePool{}, false, fmt.Errorf("failed to list pools: %w", err)
	}
	for _, lp := range pools {
		if lp.Name == name {
			return lp, true, nil
		}
	}
	return libvirt.StoragePool{}, false, nil
}

func (p *PoolPublisher) ensureRunning(lp libvirt.StoragePool) error {
	state, _, _, _, err := p.client.StoragePoolGetInfo(lp)
	if err != nil {
		return fmt.Errorf("failed to get pool info: %w", err)
	}
	if libvirt.StoragePoolState(state) == libvirt.StoragePoolRunning {
		return nil
	}
	if err := p.client.StoragePoolCreate(lp, 0); err != nil {
		return fmt.Errorf("failed to start pool: %w", err)
	}
	return nil
}

func stateName(s libvirt.StoragePoolState) string {
	switch s {
	case libvirt.StoragePoolInactive:
		return "inactive"
	case libvirt.StoragePoolBuilding:
		return "building"
	case libvirt.StoragePoolRunning:
		return "running"
	case libvirt.StoragePoolDegraded:
		return "degraded"
	case libvirt.StoragePoolInaccessible:
		return "inaccessible"
	default:
		return "unknown"
	}
}

// generateLogicalPoolXML generates XML for an LVM-backed storage pool.
func generateLogicalPoolXML(name string, devices []string, devDir string) (string, error) {
	source := &libvirtxml.StoragePoolSource{
		Name:   name,
		Format: &libvirtxml.StoragePoolSourceFormat{Type: "lvm2"},
	}
	for _, dev := range devices {
		source.Device = append(source.Device, libvirtxml.StoragePoolSourceDevice{Path: dev})
	}

	pool := &libvirtxml.StoragePool{
		Type:   "logical",
		Name:   name,
		Source: source,
		Target: &libvirtxml.StoragePoolTarget{
			Path: devDir + "/" + name,
		},
	}

	xml, err := pool.Marshal()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(xml), nil
}
