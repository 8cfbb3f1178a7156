package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrcointreau/racunis"
)

// Pool wraps a *pgxpool.Pool, implementing racunis.Pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool parses connString and builds a ready-to-use *pgxpool.Pool. Callers
// construct a racunis.PoolFactory by closing over connString, e.g.:
//
//	factory := func() (racunis.Pool, error) { return postgres.NewPool(ctx, connString) }
func NewPool(ctx context.Context, connString string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Pool{pool: pool}, nil
}

// GetClient acquires a pooled connection and binds it to queueName.
func (p *Pool) GetClient(ctx context.Context, queueName string) (racunis.Client, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, queueName: queueName, table: tableIdentifier(queueName).Sanitize()}, nil
}

// Close closes every connection in the pool.
func (p *Pool) Close() error {
	p.pool.Close()
	return nil
}
