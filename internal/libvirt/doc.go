// Package libvirt publishes lvmpool pools to a local libvirt daemon.
//
// This package wraps github.com/digitalocean/go-libvirt to provide:
//   - Connection management (connect, disconnect, ping)
//   - Logical storage pool XML generation from LVM pools
//   - A PoolPublisher that keeps libvirt pools in step with volume groups
//
// Connection Management:
//
//	client, err := libvirt.Connect(libvirt.DefaultSocket, libvirt.DefaultTimeout)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	version, err := client.Ping()
//
// Publishing:
//
// A PoolPublisher satisfies lvm.Publisher. Handing it to lvm.NewManager via
// lvm.WithPublisher defines a "logical" libvirt pool for every created pool,
// refreshes it after volume changes and undefines it when the pool goes away:
//
//	mgr := lvm.NewManager(runner, lvm.WithPublisher(client.Publisher("/dev")))
//
// The publisher depends on the StorageClient interface rather than on
// *libvirt.Libvirt so tests can substitute a mock.
package libvirt
