package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// main tunes process-wide resource limits before dispatching to cobra,
// grounded in cmd/main.go's Main(): GOMAXPROCS and GOMEMLIMIT are set to
// match the container quota (if any) before any subcommand runs, since
// both affect the whole process regardless of which subcommand executes.
func main() {
	bootstrapLogger := zap.NewNop()
	if l, err := zap.NewProduction(); err == nil {
		bootstrapLogger = l
	}

	undo, err := maxprocs.Set(maxprocs.Logger(bootstrapLogger.Sugar().Infof))
	defer undo()
	if err != nil {
		bootstrapLogger.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}

	_, _ = memlimit.SetGoMemLimitWithOpts(
		memlimit.WithLogger(slog.New(zapslog.NewHandler(bootstrapLogger.Core()))),
		memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
	)

	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.Error())
			os.Exit(ee.ExitCode)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
