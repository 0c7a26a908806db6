package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mwantia/typedfs/backend"
	"github.com/mwantia/typedfs/data"
)

type row struct {
	size    int64
	modTime time.Time
}

func (sb *SQLiteBackend) Enumerate(ctx context.Context, folder data.ID) ([]*backend.Object, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	prefixKey := folder.String()
	if prefixKey != "" {
		prefixKey += "/"
	}

	rows, err := sb.db.QueryContext(ctx, `
		SELECT o.key, d.size, o.modify_time
		FROM typedfs_objects o JOIN typedfs_data d ON d.id = o.id
		WHERE substr(o.key, 1, length(?)) = ?
		ORDER BY o.key`, prefixKey, prefixKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	details := make(map[string]row)
	for rows.Next() {
		var key string
		var size, modifyTime int64
		if err := rows.Scan(&key, &size, &modifyTime); err != nil {
			return nil, err
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

func (sb *SQLiteBackend) Locate(id data.ID, suffix string) string {
	return backend.Key(id, suffix)
}

func (sb *SQLiteBackend) ReadObject(ctx context.Context, key string) (io.ReadCloser, error) {
	sb.mu.RLock()
	defer sb.mu.RUnlock()

	var content []byte
	err := sb.db.QueryRowContext(ctx, `
		SELECT d.content
		FROM typedfs_objects o JOIN typedfs_data d ON d.id = o.id
		WHERE o.key = ?`, key).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, err
	}

	return backend.NopReadCloser(content), nil
}

func (sb *SQLiteBackend) WriteObject(ctx context.Context, key string) (io.WriteCloser, error) {
	if key == "" {
		return nil, data.ErrInvalid
	}

	return backend.NewBufferedWriter(func(content []byte) error {
		return sb.store(ctx, key, content)
	}), nil
}

// store replaces the content stored at key in a single transaction.
func (sb *SQLiteBackend) store(ctx context.Context, key string, content []byte) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	tx, err := sb.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var previous string
	err = tx.QueryRowContext(ctx, "SELECT id FROM typedfs_objects WHERE key = ?", key).Scan(&previous)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	id := uuid.Must(uuid.NewV7()).String()
	if content == nil {
		content = []byte{}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO typedfs_data (id, content, size) VALUES (?, ?, ?)",
		id, content, len(content)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO typedfs_objects (key, id, modify_time) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET id = excluded.id, modify_time = excluded.modify_time`,
		key, id, time.Now().UnixNano()); err != nil {
		return err
	}

	if previous != "" {
		if _, err := tx.ExecContext(ctx, "DELETE FROM typedfs_data WHERE id = ?", previous); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (sb *SQLiteBackend) DeleteObject(ctx context.Context, key string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	tx, err := sb.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, "SELECT id FROM typedfs_objects WHERE key = ?", key).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return data.ErrNotExist
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM typedfs_objects WHERE key = ?", key); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM typedfs_data WHERE id = ?", id); err != nil {
		return err
	}

	return tx.Commit()
}
