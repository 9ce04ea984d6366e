package sql

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

const (
	querySeparator = ";\n"

	migrationTableDDL = `
		CREATE TABLE IF NOT EXISTS migration (
			id text PRIMARY KEY
		)
	`
)

// Migrator applies every file of the given sources once, in name order.
type Migrator struct {
	txClient TxClient
	logger   log.Logger
}

func NewMigrator(txClient TxClient, logger log.Logger) *Migrator {
	return &Migrator{txClient: txClient, logger: logger}
}

func (m *Migrator) Execute(ctx context.Context, sources ...fs.FS) error {
	_, err := m.txClient.ExecContext(ctx, migrationTableDDL)
	if err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	performed, err := m.performedMigrationIDs(ctx)
	if err != nil {
		return fmt.Errorf("get performed migrations: %w", err)
	}

	for _, source := range sources {
		err = m.executeSource(ctx, source, performed)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) executeSource(ctx context.Context, source fs.FS, performed map[string]struct{}) error {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := performed[name]; ok {
			continue
		}

		content, err := fs.ReadFile(source, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = m.perform(ctx, name, string(content))
		if err != nil {
			return err
		}
		performed[name] = struct{}{}
	}

	return nil
}

func (m *Migrator) perform(ctx context.Context, migrationID, migrationSQL string) error {
	if strings.TrimSpace(migrationSQL) == "" {
		return fmt.Errorf("migration %s: %w", migrationID, errors.New("empty migration"))
	}

	tx, err := m.txClient.Begin(ctx)
	if err != nil {
		return fmt.Errorf("start tx: %w", err)
	}

	err = m.apply(ctx, tx, migrationID, migrationSQL)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("migration %s failed: %w", migrationID, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	m.logger.WithField("migrationID", migrationID).Info(ctx, "migration executed successfully")
	return nil
}

func (m *Migrator) apply(ctx context.Context, client Client, migrationID, migrationSQL string) error {
	query, args, err := sq.Insert("migration").Columns("id").Values(migrationID).ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	_, err = client.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	for _, stmt := range strings.Split(migrationSQL, querySeparator) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}

		_, err = client.ExecContext(ctx, stmt)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m *Migrator) performedMigrationIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	err := m.txClient.SelectContext(ctx, &ids, `SELECT id FROM migration`)
	if err != nil {
		return nil, err
	}

	result := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		result[id] = struct{}{}
	}
	return result, nil
}
