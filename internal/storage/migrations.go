package storage

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// Steps are append-only. Never renumber or edit an applied step.
var migrations = []migration{
	{version: 1, name: "base schema", apply: applySchema},
	{version: 2, name: "reports.message_id", apply: addMessageID},
	{version: 3, name: "settings and report index", apply: addSettings},
}

func applySchema(ctx context.Context, tx *sql.Tx) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, string(b))
	return err
}

// Databases written by the legacy deployment may already carry the column.
func addMessageID(ctx context.Context, tx *sql.Tx) error {
	ok, err := hasColumn(ctx, tx, "reports", "message_id")
	if err != nil || ok {
		return err
	}
	_, err = tx.ExecContext(ctx, `ALTER TABLE reports ADD COLUMN message_id INTEGER`)
	return err
}

func addSettings(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS settings (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_reports_chat_date ON reports (chat_id, report_date);
    `)
	return err
}

func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// SchemaVersion is the last applied migration.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := d.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v); err != nil {
		return 0, d.fail("schema version", err)
	}
	return v, nil
}

func (d *DB) migrate(ctx context.Context) error {
	current, err := d.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := d.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		d.log.Infow("applied migration", "version", m.version, "name", m.name)
	}
	return nil
}

func (d *DB) applyMigration(ctx context.Context, m migration) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.apply(ctx, tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return err
	}
	return tx.Commit()
}
