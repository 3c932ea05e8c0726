package db

import (
	"context"
	"database/sql"
	"fmt"
)

// prefixClause matches keys that start with a literal prefix. LIKE is avoided
// because '_' in key prefixes would act as a wildcard.
const prefixClause = "substr(key, 1, length(?)) = ?"

// Get retrieves a value by key. The bool reports whether the key exists.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores or updates a value by key.
func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting %q: %w", key, err)
	}
	return nil
}

// SetMany upserts several keys in one transaction.
func (d *DB) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for k, v := range values {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')",
			k, v,
		)
		if err != nil {
			return fmt.Errorf("setting %q: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (d *DB) Delete(ctx context.Context, key string) error {
	if _, err := d.conn.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Scan returns every key/value pair under prefix.
func (d *DB) Scan(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := d.conn.QueryContext(ctx, "SELECT key, value FROM kv WHERE "+prefixClause, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", prefix, err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeletePrefix removes every key under prefix and returns how many went.
func (d *DB) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	res, err := d.conn.ExecContext(ctx, "DELETE FROM kv WHERE "+prefixClause, prefix, prefix)
	if err != nil {
		return 0, fmt.Errorf("deleting prefix %q: %w", prefix, err)
	}
	return res.RowsAffected()
}
