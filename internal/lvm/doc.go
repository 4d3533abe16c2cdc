// Package lvm provides LVM volume group (pool) and logical volume
// (replica) lifecycle management.
//
// This package maps a small set of lifecycle operations onto the LVM
// command surface:
//   - Pool lifecycle (create, get, list, remove) via pvcreate, vgcreate,
//     vgs, pvs, vgremove and pvremove
//   - Volume lifecycle (create, get, list, remove) via lvcreate, lvs and
//     lvremove
//
// Read-Through Model:
//
// Pools and replicas are never cached. Every read re-queries LVM and
// rebuilds the entity from its JSON reports (--reportformat json), so a
// returned Pool always reflects LVM's state at call time. Pool device
// membership is recomputed on each read from the global pvs mapping.
//
// Multi-Step Operations:
//
// Pool create (pvcreate, vgcreate, read back), pool remove (read,
// vgremove, pvremove) and volume remove (read, lvremove) are sequences of
// independent commands. A failing step aborts the sequence and earlier
// steps are NOT rolled back; the returned error names the step that
// failed so the caller can see what state LVM was left in.
//
// Error Kinds:
//
// Every error returned by a manager matches exactly one of the sentinels
// below with errors.Is:
//   - ErrFailedExec: an LVM command ran and exited nonzero (or timed out)
//   - ErrFailedParsing: a report could not be decoded, or was inconsistent
//   - ErrNotFound: the named pool or volume does not exist
//   - ErrEnvironment: the command could not be started at all
//   - ErrInvalidRequest: the request was rejected before running anything
//
// Kind(err) returns a stable name for the kind.
//
// Concurrency:
//
// Mutating operations hold a per-name lock for their whole duration
// (pool name, then volume uuid). Reads take no locks. Locks are process
// local; LVM's own locking covers other processes.
//
// Example usage:
//
//	runner := shell.NewRunner(60 * time.Second)
//	mgr := lvm.NewManager(runner)
//
//	pool, err := mgr.Pools.Create(ctx, "tank1", []string{"/dev/sdb", "/dev/sdc"})
//	if err != nil {
//	    return err
//	}
//
//	replica, err := mgr.Volumes.Create(ctx, lvm.CreateVolumeRequest{
//	    UUID: "vol-1",
//	    Pool: pool.Name,
//	    Size: 1 << 30,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(replica.URI) // /dev/tank1/vol-1
package lvm
