package libvirt

import (
	"fmt"
	"sort"

	"github.com/digitalocean/go-libvirt"
	libvirtxml "libvirt.org/go/libvirtxml"
)

// mockStorageClient is a mock implementation of StorageClient for testing.
type mockStorageClient struct {
	pools map[string]*mockPool

	// failures makes the named method return an error.
	failures map[string]error
	calls    []string
}

type mockPool struct {
	name      string
	state     libvirt.StoragePoolState
	autostart bool
	xmlDesc   string
	refreshes int
}

func newMockStorageClient() *mockStorageClient {
	return &mockStorageClient{
		pools:    make(map[string]*mockPool),
		failures: make(map[string]error),
	}
}

func (m *mockStorageClient) record(method string) error {
	m.calls = append(m.calls, method)
	return m.failures[method]
}

func (m *mockStorageClient) lookup(pool libvirt.StoragePool) (*mockPool, error) {
	p, ok := m.pools[pool.Name]
	if !ok {
		return nil, fmt.Errorf("storage pool not found: %s", pool.Name)
	}
	return p, nil
}

func (m *mockStorageClient) StoragePoolDefineXML(xml string, flags uint32) (libvirt.StoragePool, error) {
	if err := m.record("StoragePoolDefineXML"); err != nil {
		return libvirt.StoragePool{}, err
	}

	var def libvirtxml.StoragePool
	if err := def.Unmarshal(xml); err != nil {
		return libvirt.StoragePool{}, fmt.Errorf("invalid pool XML: %w", err)
	}
	if def.Name == "" {
		return libvirt.StoragePool{}, fmt.Errorf("invalid pool XML: missing name")
	}
	if _, ok := m.pools[def.Name]; ok {
		return libvirt.StoragePool{}, fmt.Errorf("storage pool already exists: %s", def.Name)
	}

	m.pools[def.Name] = &mockPool{
		name:    def.Name,
		state:   libvirt.StoragePoolInactive,
		xmlDesc: xml,
	}
	return libvirt.StoragePool{Name: def.Name}, nil
}

func (m *mockStorageClient) StoragePoolCreate(pool libvirt.StoragePool, flags libvirt.StoragePoolCreateFlags) error {
	if err := m.record("StoragePoolCreate"); err != nil {
		return err
	}
	p, err := m.lookup(pool)
	if err != nil {
		return err
	}
	p.state = libvirt.StoragePoolRunning
	return nil
}

func (m *mockStorageClient) StoragePoolSetAutostart(pool libvirt.StoragePool, autostart int32) error {
	if err := m.record("StoragePoolSetAutostart"); err != nil {
		return err
	}
	p, err := m.lookup(pool)
	if err != nil {
		return err
	}
	p.autostart = autostart == 1
	return nil
}

func (m *mockStorageClient) StoragePoolGetAutostart(pool libvirt.StoragePool) (int32, error) {
	p, err := m.lookup(pool)
	if err != nil {
		return 0, err
	}
	if p.autostart {
		return 1, nil
	}
	return 0, nil
}

func (m *mockStorageClient) StoragePoolDestroy(pool libvirt.StoragePool) error {
	if err := m.record("StoragePoolDestroy"); err != nil {
		return err
	}
	p, err := m.lookup(pool)
	if err != nil {
		return err
	}
	p.state = libvirt.StoragePoolInactive
	return nil
}

func (m *mockStorageClient) StoragePoolUndefine(pool libvirt.StoragePool) error {
	if err := m.record("StoragePoolUndefine"); err != nil {
		return err
	}
	if _, err := m.lookup(pool); err != nil {
		return err
	}
	delete(m.pools, pool.Name)
	return nil
}

func (m *mockStorageClient) StoragePoolGetInfo(pool libvirt.StoragePool) (uint8, uint64, uint64, uint64, error) {
	p, err := m.lookup(pool)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return uint8(p.state), 10 << 30, 1 << 30, 9 << 30, nil
}

func (m *mockStorageClient) StoragePoolGetXMLDesc(pool libvirt.StoragePool, flags libvirt.StorageXMLFlags) (string, error) {
	p, err := m.lookup(pool)
	if err != nil {
		return "", err
	}
	return p.xmlDesc, nil
}

func (m *mockStorageClient) StoragePoolRefresh(pool libvirt.StoragePool, flags uint32) error {
	if err := m.record("StoragePoolRefresh"); err != nil {
		return err
	}
	p, err := m.lookup(pool)
	if err != nil {
		return err
	}
	p.refreshes++
	return nil
}

func (m *mockStorageClient) ConnectListAllStoragePools(needResults int32, flags libvirt.ConnectListAllStoragePoolsFlags) ([]libvirt.StoragePool, uint32, error) {
	if err := m.record("ConnectListAllStoragePools"); err != nil {
		return nil, 0, err
	}
	names := make([]string, 0, len(m.pools))
	for name := range m.pools {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]libvirt.StoragePool, 0, len(names))
	for _, name := range names {
		result = append(result, libvirt.StoragePool{Name: name})
	}
	return result, uint32(len(result)), nil
}
