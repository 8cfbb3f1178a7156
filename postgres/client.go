package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrcointreau/racunis"
)

// queryable abstracts the subset of *pgxpool.Conn and pgx.Tx that Client
// needs, so AcquireJob's explicit transaction and every other
// single-statement operation share the same scan/exec helpers.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Client wraps one pooled connection bound to a single queue (table) name.
// It implements racunis.Client.
type Client struct {
	conn      *pgxpool.Conn
	queueName string
	table     string // sanitized identifier
	tx        pgx.Tx // set between BeginTransaction and Commit/RollbackTransaction
}

var _ racunis.Client = (*Client)(nil)

// execer returns the target every CRUD method should run its statement
// against: the open transaction when one exists between BeginTransaction and
// Commit/RollbackTransaction, the pooled connection otherwise. Without this,
// BeginTransaction/CommitTransaction/RollbackTransaction would be decorative
// — every other method would keep talking straight to c.conn and run outside
// the transaction the caller thinks it opened.
func (c *Client) execer() queryable {
	if c.tx != nil {
		return c.tx
	}
	return c.conn
}

func (c *Client) InitQueueData(ctx context.Context) error {
	return initQueueSchema(ctx, c.conn, c.queueName)
}

func (c *Client) InsertJob(ctx context.Context, payload json.RawMessage, state racunis.State, priority int) (*racunis.Job, error) {
	row := c.execer().QueryRow(ctx, fmt.Sprintf(
		`INSERT INTO %s (payload, state, priority) VALUES ($1, $2, $3)
		 RETURNING id, payload, state, priority, "errorMessage", "createdAt", "updatedAt"`,
		c.table,
	), string(payload), state.String(), priority)
	return scanJob(row)
}

// AcquireJob runs the literal protocol SPEC_FULL.md §4.2 describes: an
// explicit transaction around a SELECT ... FOR UPDATE SKIP LOCKED followed
// by an UPDATE, rather than collapsing both into a single UPDATE ... WHERE
// id = (subquery) statement. The row lock is released at COMMIT, before the
// caller's processor runs.
func (c *Client) AcquireJob(ctx context.Context) (*racunis.Job, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin acquire: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, fmt.Sprintf(
		`SELECT id FROM %s WHERE state = $1 ORDER BY priority DESC, "createdAt" ASC, id ASC LIMIT 1 FOR UPDATE SKIP LOCKED`,
		c.table,
	), racunis.StateWaiting.String()).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &racunis.AcquirableJobNotFoundError{Queue: c.queueName}
		}
		return nil, fmt.Errorf("postgres: select for acquire: %w", err)
	}

	row := tx.QueryRow(ctx, fmt.Sprintf(
		`UPDATE %s SET state = $1 WHERE id = $2
		 RETURNING id, payload, state, priority, "errorMessage", "createdAt", "updatedAt"`,
		c.table,
	), racunis.StateActive.String(), id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("postgres: update for acquire: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres: commit acquire: %w", err)
	}
	return job, nil
}

func (c *Client) UpdateJobStateByID(ctx context.Context, id int64, state racunis.State, errorMessage *string) (*racunis.Job, error) {
	row := c.execer().QueryRow(ctx, fmt.Sprintf(
		`UPDATE %s SET state = $1, "errorMessage" = $2 WHERE id = $3
		 RETURNING id, payload, state, priority, "errorMessage", "createdAt", "updatedAt"`,
		c.table,
	), state.String(), errorMessage, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &racunis.JobNotFoundError{Queue: c.queueName, ID: id}
		}
		return nil, fmt.Errorf("postgres: update job state: %w", err)
	}
	return job, nil
}

func (c *Client) CountJobsByState(ctx context.Context, states ...racunis.State) (map[racunis.State]int64, error) {
	counts := make(map[racunis.State]int64, len(states))
	for _, s := range states {
		counts[s] = 0
	}
	if len(states) == 0 {
		return counts, nil
	}

	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}

	rows, err := c.execer().Query(ctx, fmt.Sprintf(
		`SELECT state, count(*) FROM %s WHERE state = ANY($1) GROUP BY state`,
		c.table,
	), names)
	if err != nil {
		return nil, fmt.Errorf("postgres: count jobs by state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stateStr string
		var count int64
		if err := rows.Scan(&stateStr, &count); err != nil {
			return nil, fmt.Errorf("postgres: scan count row: %w", err)
		}
		state, err := racunis.ParseState(stateStr)
		if err != nil {
			return nil, err
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: count jobs rows: %w", err)
	}
	return counts, nil
}

func (c *Client) DeleteJobsByState(ctx context.Context, states ...racunis.State) error {
	if len(states) == 0 {
		return nil
	}
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	_, err := c.execer().Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE state = ANY($1)`, c.table), names)
	if err != nil {
		return fmt.Errorf("postgres: delete jobs by state: %w", err)
	}
	return nil
}

func (c *Client) BeginTransaction(ctx context.Context) error {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return err
	}
	c.tx = tx
	return nil
}

func (c *Client) CommitTransaction(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("postgres: no open transaction")
	}
	err := c.tx.Commit(ctx)
	c.tx = nil
	return err
}

func (c *Client) RollbackTransaction(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("postgres: no open transaction")
	}
	err := c.tx.Rollback(ctx)
	c.tx = nil
	return err
}

func (c *Client) Release() error {
	c.conn.Release()
	return nil
}

func scanJob(row pgx.Row) (*racunis.Job, error) {
	var (
		job          racunis.Job
		stateStr     string
		payload      []byte
		errorMessage *string
		createdAt    time.Time
		updatedAt    time.Time
	)
	if err := row.Scan(&job.ID, &payload, &stateStr, &job.Priority, &errorMessage, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	state, err := racunis.ParseState(stateStr)
	if err != nil {
		return nil, err
	}
	job.State = state
	job.Payload = json.RawMessage(payload)
	job.ErrorMessage = errorMessage
	job.CreatedAt = createdAt
	job.UpdatedAt = updatedAt
	return &job, nil
}
