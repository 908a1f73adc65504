package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"pkt.systems/psi"
	"pkt.systems/pslog"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// errSyncIncomplete marks a run that finished with failures. The report has
// already been rendered by then; only the exit code is left to set.
var errSyncIncomplete = errors.New("sync incomplete")

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "kaggle-sync",
		Short: "Mirror Kaggle notebooks into GitHub repositories",
		Long: `kaggle-sync mirrors a Kaggle user's notebooks into individually named
GitHub repositories, preserving cell outputs. Each run lists the remote
notebooks, creates missing repositories and overwrites every repository's
notebook, metadata and README with the current Kaggle content.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
}

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSyncIncomplete) {
			pslog.Ctx(ctx).With("err", err).Error("kaggle-sync failed")
		}
		return 1
	}
	return 0
}
