// Package main is the entry point for the gitcamus CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gitcamus/gitcamus/internal/cmd"
	apperrors "github.com/gitcamus/gitcamus/internal/pkg/errors"
)

// Version information - set via ldflags during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := cmd.NewRootCmd(version, commit, date)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if apperrors.IsVerbose() {
			fmt.Fprint(os.Stderr, apperrors.FormatErrorVerbose(err))
		} else {
			fmt.Fprintln(os.Stderr, apperrors.FormatError(err))
		}
	}
	os.Exit(apperrors.GetExitCode(err))
}
