// Package persist saves and restores state store snapshots.
//
// A Snapshotter encodes the store tree with msgpack and hands the bytes to
// a Backend:
//
//	db, err := persist.OpenBolt("state.db")
//	if err != nil { ... }
//	defer db.Close()
//
//	snap := persist.NewSnapshotter(store, db)
//	if err := snap.Save(ctx, "default"); err != nil { ... }
//
// Backends are BoltBackend (a local bbolt file), S3Backend (an S3 bucket
// via aws-sdk-go-v2) and MemoryBackend (tests).
package persist
