package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	sq "github.com/Masterminds/squirrel"

	"github.com/klwxsrx/edu-resource-client/internal/auth/session"
	pkgsql "github.com/klwxsrx/edu-resource-client/pkg/sql"
)

const sessionSlotTable = "session_slot"

//go:embed migrations/*.sql
var migrations embed.FS

// SQLMigrations creates the table used by the sql storage.
func SQLMigrations() fs.FS {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		panic(fmt.Errorf("open embedded migrations: %w", err))
	}
	return sub
}

type sqlStorage struct {
	client pkgsql.Client
}

func NewSQL(client pkgsql.Client) session.Storage {
	return &sqlStorage{client: client}
}

func (s *sqlStorage) Get(ctx context.Context, key string) (string, bool, error) {
	query, args, err := sq.
		Select("value").
		From(sessionSlotTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build query: %w", err)
	}

	var value string
	err = s.client.GetContext(ctx, &value, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select %s: %w", key, err)
	}

	return value, true, nil
}

func (s *sqlStorage) Set(ctx context.Context, key, value string) error {
	query, args, err := sq.
		Insert(sessionSlotTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("on conflict (key) do update set value = excluded.value, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.client.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}

	return nil
}

func (s *sqlStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	query, args, err := sq.
		Delete(sessionSlotTable).
		Where(sq.Eq{"key": keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = s.client.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}

	return nil
}
