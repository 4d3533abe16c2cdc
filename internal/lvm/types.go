package lvm

import (
	"fmt"

	"github.com/jbweber/lvmpool/internal/naming"
)

// Pool is a volume group as last read from LVM.
type Pool struct {
	Name     string   `json:"name" yaml:"name"`         // Volume group name
	Devices  []string `json:"devices" yaml:"devices"`   // Member physical volumes
	Capacity uint64   `json:"capacity" yaml:"capacity"` // Total size in bytes
	Used     uint64   `json:"used" yaml:"used"`         // Capacity minus free bytes
}

// Free returns the unallocated capacity in bytes.
func (p *Pool) Free() uint64 {
	return p.Capacity - p.Used
}

// Protocol selects how a replica is exposed to consumers.
type Protocol int

const (
	ProtocolNone  Protocol = 0 // Local block device
	ProtocolNVMf  Protocol = 1 // NVMe over Fabrics
	ProtocolISCSI Protocol = 2 // iSCSI target
)

// String returns the protocol name.
func (p Protocol) String() string {
	switch p {
	case ProtocolNone:
		return "none"
	case ProtocolNVMf:
		return "nvmf"
	case ProtocolISCSI:
		return "iscsi"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// Replica is a logical volume inside a pool.
//
// Thin is always false and Share always ProtocolNone: every volume is a
// thick, locally attached block device.
type Replica struct {
	UUID  string   `json:"uuid" yaml:"uuid"`   // Caller supplied id, also the LV name
	Pool  string   `json:"pool" yaml:"pool"`   // Owning volume group
	Size  uint64   `json:"size" yaml:"size"`   // Size in bytes
	Thin  bool     `json:"thin" yaml:"thin"`   // Thin provisioned (never true)
	Share Protocol `json:"share" yaml:"share"` // Exposure protocol (never set)
	URI   string   `json:"uri" yaml:"uri"`     // Device node path
}

// CreateVolumeRequest specifies a volume to create.
type CreateVolumeRequest struct {
	UUID  string   `json:"uuid"`
	Pool  string   `json:"pool"`
	Size  uint64   `json:"size"`
	Thin  bool     `json:"thin"`
	Share Protocol `json:"share"`
}

// Validate checks the request fields that can be checked without LVM.
func (r *CreateVolumeRequest) Validate() error {
	if err := naming.ValidateVolumeName(r.UUID); err != nil {
		return err
	}
	if err := naming.ValidatePoolName(r.Pool); err != nil {
		return err
	}
	if r.Size == 0 {
		return fmt.Errorf("volume size must be greater than 0")
	}
	return nil
}

// unsupported reports whether the request asks for a feature this backend
// does not implement.
func (r *CreateVolumeRequest) unsupported() bool {
	return r.Thin || r.Share != ProtocolNone
}

func validatePoolRequest(name string, devices []string) error {
	if err := naming.ValidatePoolName(name); err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("at least one device is required")
	}
	seen := make(map[string]bool, len(devices))
	for i, dev := range devices {
		if err := naming.ValidateDevicePath(dev); err != nil {
			return fmt.Errorf("devices[%d]: %w", i, err)
		}
		if seen[dev] {
			return fmt.Errorf("devices[%d]: duplicate device %q", i, dev)
		}
		seen[dev] = true
	}
	return nil
}
