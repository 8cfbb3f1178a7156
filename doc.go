// Package racunis implements a database-backed, priority-ordered job queue
// with transactional job leasing. A relational database is the single
// source of truth for jobs: durability, ordering, and concurrency control
// are delegated to SQL primitives (row-level locking with skip-locked
// semantics, transactions, enumerated types).
//
// Five pieces make up the package: Pool owns backend connections and hands
// out Clients; Client binds one connection to one named queue and holds all
// SQL; Queue is the named, process-unique façade that callers enqueue
// through; Worker drives the polling loop that leases, runs, and finalises
// jobs; and the retry helper bounds processor attempts.
//
// racunis itself is storage-agnostic: it depends only on the Pool and
// Client interfaces. A concrete PostgreSQL implementation lives in the
// sibling module github.com/mrcointreau/racunis/postgres.
package racunis
