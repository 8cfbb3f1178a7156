package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// createStateEnum creates the job_state enum shared by every queue table in
// the database. Wrapped in its own exception handler so a concurrent
// CREATE TYPE from another connection (duplicate_object, 42710) is
// swallowed at the SQL level; isDuplicateObjectError below is a second line
// of defense for backends where the DO block's EXCEPTION clause does not
// apply (e.g. if the statement is ever split across a non-transactional
// path).
const createStateEnum = `
DO $$
BEGIN
    CREATE TYPE job_state AS ENUM ('waiting', 'active', 'completed', 'failed');
EXCEPTION
    WHEN duplicate_object THEN NULL;
END
$$;`

// createModifiedColumnFunction is CREATE OR REPLACE, so it is naturally
// idempotent and needs no exception handling.
const createModifiedColumnFunction = `
CREATE OR REPLACE FUNCTION update_modified_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW."updatedAt" = now();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

// mysqlSchemaNote documents the MySQL variant of this contract (SPEC_FULL.md
// §6). It is not executed by this package; see doc.go.
//
//	CREATE TABLE IF NOT EXISTS `<queue>` (
//	    id INT AUTO_INCREMENT PRIMARY KEY,
//	    payload JSON NOT NULL,
//	    state ENUM('waiting','active','completed','failed') NOT NULL DEFAULT 'waiting',
//	    priority INT NOT NULL DEFAULT 5,
//	    errorMessage TEXT,
//	    createdAt TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3),
//	    updatedAt TIMESTAMP(3) DEFAULT CURRENT_TIMESTAMP(3) ON UPDATE CURRENT_TIMESTAMP(3),
//	    INDEX idx_dequeue (state, priority DESC, createdAt ASC, id ASC)
//	);
const mysqlSchemaNote = ""

func tableIdentifier(queueName string) pgx.Identifier {
	return pgx.Identifier{queueName}
}

func createTableSQL(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id SERIAL PRIMARY KEY,
    payload JSON NOT NULL,
    state job_state NOT NULL DEFAULT 'waiting',
    priority INTEGER NOT NULL DEFAULT 5,
    "errorMessage" TEXT,
    "createdAt" TIMESTAMP(3) NOT NULL DEFAULT now(),
    "updatedAt" TIMESTAMP(3) NOT NULL DEFAULT now()
)`, table)
}

func createIndexSQL(table, indexName string) string {
	index := pgx.Identifier{indexName}.Sanitize()
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (state, priority DESC, "createdAt" ASC, id ASC)`, index, table)
}

func dropTriggerSQL(table, triggerName string) string {
	trigger := pgx.Identifier{triggerName}.Sanitize()
	return fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON %s`, trigger, table)
}

func createTriggerSQL(table, triggerName string) string {
	trigger := pgx.Identifier{triggerName}.Sanitize()
	return fmt.Sprintf(`CREATE TRIGGER %s BEFORE UPDATE ON %s FOR EACH ROW EXECUTE FUNCTION update_modified_column()`, trigger, table)
}

// initQueueSchema runs the full DDL contract for one queue: the shared enum
// and trigger function (idempotent, safe to re-run for every queue), then
// the table, index, and trigger specific to queueName.
func initQueueSchema(ctx context.Context, exec queryable, queueName string) error {
	table := tableIdentifier(queueName).Sanitize()
	indexName := queueName + "_dequeue_idx"
	triggerName := "update_modified_column_trigger"

	statements := []string{
		createStateEnum,
		createModifiedColumnFunction,
		createTableSQL(table),
		createIndexSQL(table, indexName),
		dropTriggerSQL(table, triggerName),
		createTriggerSQL(table, triggerName),
	}
	for _, stmt := range statements {
		if _, err := exec.Exec(ctx, stmt); err != nil && !isDuplicateObjectError(err) {
			return fmt.Errorf("postgres: init schema for queue %q: %w", queueName, err)
		}
	}
	return nil
}
