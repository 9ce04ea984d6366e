package cmd

import (
	"github.com/klwxsrx/edu-resource-client/pkg/env"
	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

// InitLogger reads LOG_LEVEL and falls back to info.
func InitLogger(opts ...log.Option) log.Logger {
	levelStr, err := env.Parse[string]("LOG_LEVEL")
	if err != nil {
		return log.New(log.LevelInfo, opts...)
	}

	level, err := log.ParseLevel(levelStr)
	if err != nil {
		return log.New(log.LevelInfo, opts...)
	}

	return log.New(level, opts...)
}
