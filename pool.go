package racunis

import "context"

// Pool owns backend connections and produces Clients. It holds no job
// state. The core never constructs a Pool itself; callers supply a
// PoolFactory (see Queue) backed by a concrete driver, such as
// github.com/mrcointreau/racunis/postgres.
type Pool interface {
	// GetClient acquires one connection from the pool and binds it to
	// queueName. The returned Client owns the connection until Release is
	// called.
	GetClient(ctx context.Context, queueName string) (Client, error)

	// Close drains and closes all connections. The core calls it at most
	// once per Pool.
	Close() error
}

// PoolFactory constructs a new, independent Pool from whatever
// configuration the caller closed over. Queue and Worker each call it once,
// per spec: "each Queue and each Worker own independent Pools built from
// the same config."
type PoolFactory func() (Pool, error)
