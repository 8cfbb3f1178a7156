// Package postgres implements racunis.Pool and racunis.Client against
// PostgreSQL using jackc/pgx/v5. It owns the DDL contract (a shared
// job_state enum, a shared update_modified_column() trigger function, and,
// per queue, a table plus the composite dequeue index) and the
// SELECT ... FOR UPDATE SKIP LOCKED lease protocol.
//
// Pool wraps a *pgxpool.Pool; Client wraps one *pgxpool.Conn bound to a
// single queue name (used, quoted via pgx.Identifier, as the table name).
// AcquireJob runs its BEGIN / SELECT ... FOR UPDATE SKIP LOCKED / UPDATE /
// COMMIT sequence over an explicit pgx.Tx, matching the transactional
// protocol SPEC_FULL.md §4.2 specifies rather than collapsing it into a
// single UPDATE ... WHERE id = (subquery) statement.
//
// The MySQL variant of the DDL contract described in SPEC_FULL.md §6
// (ON UPDATE CURRENT_TIMESTAMP(3) instead of a trigger) is documented in
// schema.go alongside the PostgreSQL DDL this package actually runs, but is
// not implemented as a second concrete package here.
package postgres
