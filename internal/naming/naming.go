// Package naming provides the naming conventions shared by pools and
// volumes: the device-node path of a logical volume and the name rules
// LVM enforces on volume group and logical volume names.
//
// The device path is part of the public contract. Other components resolve
// a volume's block device from it, so its shape must not change.
package naming

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultDevDir is the directory under which LVM creates /dev/<vg>/<lv>.
const DefaultDevDir = "/dev"

// maxNameLen is the longest VG or LV name LVM accepts.
const maxNameLen = 127

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9+_.][a-zA-Z0-9+_.-]*$`)

// LVM reserves these substrings for internal volumes.
var reservedLVSubstrings = []string{
	"_cdata", "_cmeta", "_corig", "_mlog", "_mimage", "_pmspare",
	"_rimage", "_rmeta", "_tdata", "_tmeta", "_vorigin", "_vdata",
}

// DeviceURI returns the device-node path of volume uuid in pool under devDir.
// Format: {devDir}/{pool}/{uuid}
func DeviceURI(devDir, pool, uuid string) string {
	if devDir == "" {
		devDir = DefaultDevDir
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(devDir, "/"), pool, uuid)
}

// ValidatePoolName checks a volume group name against LVM's naming rules.
func ValidatePoolName(name string) error {
	return validateName("pool", name)
}

// ValidateVolumeName checks a logical volume name against LVM's naming
// rules, including the names LVM reserves for internal volumes.
func ValidateVolumeName(name string) error {
	if err := validateName("volume", name); err != nil {
		return err
	}
	if strings.HasPrefix(name, "snapshot") || strings.HasPrefix(name, "pvmove") {
		return fmt.Errorf("volume name %q uses a prefix reserved by LVM", name)
	}
	for _, s := range reservedLVSubstrings {
		if strings.Contains(name, s) {
			return fmt.Errorf("volume name %q contains %q which is reserved by LVM", name, s)
		}
	}
	return nil
}

// ValidateDevicePath checks that a block device path is absolute and clean.
func ValidateDevicePath(path string) error {
	if path == "" {
		return fmt.Errorf("device path is required")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("device path must be absolute, got %q", path)
	}
	if filepath.Clean(path) != path {
		return fmt.Errorf("device path %q is not clean (expected %q)", path, filepath.Clean(path))
	}
	return nil
}

func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%s name must be at most %d characters, got %d", kind, maxNameLen, len(name))
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%s name %q is not allowed", kind, name)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s name must contain only alphanumeric characters and +_.- and must not start with a hyphen, got %q", kind, name)
	}
	return nil
}
