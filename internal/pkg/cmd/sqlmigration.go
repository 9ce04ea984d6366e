package cmd

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
	"github.com/klwxsrx/edu-resource-client/pkg/sql"
)

type (
	SQLMigrations interface {
		MustRegister(sources ...fs.FS)
	}

	sqlMigrations struct {
		ctx    context.Context
		db     sql.TxClient
		logger log.Logger
	}
)

func NewSQLMigrations(
	ctx context.Context,
	db sql.TxClient,
	logger log.Logger,
) SQLMigrations {
	return &sqlMigrations{
		ctx:    ctx,
		db:     db,
		logger: logger,
	}
}

func (s *sqlMigrations) MustRegister(sources ...fs.FS) {
	if len(sources) == 0 {
		return
	}

	err := sql.NewMigrator(s.db, s.logger).Execute(s.ctx, sources...)
	if err != nil {
		panic(fmt.Errorf("execute migrations: %w", err))
	}
}
