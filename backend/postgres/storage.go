package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

type row struct {
	size    int64
	modTime time.Time
}

func (pb *PostgresBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	conn, err := pb.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	prefixKey := folder.String()
	if prefixKey != "" {
		prefixKey += "/"
	}

	rows, err := conn.Query(ctx, `
		SELECT o.key, d.size, o.modify_time
		FROM typedfs_objects o JOIN typedfs_data d ON d.id = o.id
		WHERE left(o.key, length($1)) = $1
		ORDER BY o.key`, prefixKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query objects: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	details := make(map[string]row)
	for rows.Next() {
		var key string
		var size, modifyTime int64
		if err := rows.Scan(&key, &size, &modifyTime); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}

		keys = append(keys, key)
		details[key] = row{size: size, modTime: time.Unix(0, modifyTime)}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return backend.ChildrenOf(folder, keys, func(key string, obj *backend.Object) {
		obj.Size = details[key].size
		obj.ModTime = details[key].modTime
	}), nil
}

func (pb *PostgresBackend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (pb *PostgresBackend) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	conn, err := pb.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var content []byte
	err = conn.QueryRow(ctx, `
		SELECT d.content
		FROM typedfs_objects o JOIN typedfs_data d ON d.id = o.id
		WHERE o.key = $1`, key).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query data: %w", err)
	}

	return backend.NopReadCloser(content), nil
}

func (pb *PostgresBackend) WriteObject(ctx context.Context, key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, data.ErrInvalid
	}

	return backend.NewBufferedWriter(func(content []byte) error {
		return pb.store(ctx, key, content)
	}), nil
}

// store replaces the content stored at key in a single transaction.
func (pb *PostgresBackend) store(ctx context.Context, key string, content []byte) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	conn, err := pb.acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var previous string
	err = tx.QueryRow(ctx, "SELECT id FROM typedfs_objects WHERE key = $1", key).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to query object: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	if content == nil {
		content = []byte{}
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO typedfs_data (id, content, size) VALUES ($1, $2, $3)",
		id, content, len(content)); err != nil {
		return fmt.Errorf("failed to insert data: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO typedfs_objects (key, id, modify_time) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET id = EXCLUDED.id, modify_time = EXCLUDED.modify_time`,
		key, id, time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to upsert object: %w", err)
	}

	if previous != "" {
		if _, err := tx.Exec(ctx, "DELETE FROM typedfs_data WHERE id = $1", previous); err != nil {
			return fmt.Errorf("failed to delete previous data: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (pb *PostgresBackend) DeleteObject(ctx context.Context, key string) error {
	pb.mu.Lock()
	defer pb.mu.Unlock()

	conn, err := pb.acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var id string
	err = conn.QueryRow(ctx, "SELECT id FROM typedfs_objects WHERE key = $1", key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return data.ErrNotExist
	}
	if err != nil {
		return fmt.Errorf("failed to query object: %w", err)
	}

	// Deleting the content cascades to the key row
	if _, err := conn.Exec(ctx, "DELETE FROM typedfs_data WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete data: %w", err)
	}

	return nil
}
