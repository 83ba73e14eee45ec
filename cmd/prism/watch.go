package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/prism"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Index a crate and keep the index up to date as files change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	engine, err := openEngine(resolveDBPath(findRepoRoot(targetDir)), "")
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		// Broken files are retried when they change.
		logger.Warn("initial index incomplete", zap.Error(err))
	}

	return engine.Watch(ctx, targetDir, prism.WatchOptions{
		OnReady: func() {
			fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", targetDir)
		},
		OnIndexed: func(paths []string, err error) {
			if err != nil {
				return
			}
			for _, p := range paths {
				fmt.Fprintf(os.Stderr, "Reindexed %s\n", p)
			}
		},
	})
}
