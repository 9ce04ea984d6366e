package cmd

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/klwxsrx/edu-resource-client/pkg/log"
)

// ExitCodePanic is the sysexits EX_SOFTWARE code.
const ExitCodePanic = 70

// RecoverExit logs a panic with its stack and sets *code to ExitCodePanic.
// It must be deferred directly, recover has no effect otherwise.
func RecoverExit(ctx context.Context, logger log.Logger, code *int) {
	msg := recover()
	if msg == nil {
		return
	}

	logger.WithField("panic", log.Fields{
		"message": fmt.Sprint(msg),
		"stack":   string(debug.Stack()),
	}).Error(ctx, "command failed with panic")
	*code = ExitCodePanic
}
