package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/engine"
	"github.com/dshills/redline/internal/logging"
	"github.com/dshills/redline/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Reload a document whenever it changes and print its open changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			a.report(path)

			err := watch.Run(cmd.Context(), path, a.cfg.Debounce(), func(ev watch.Event) error {
				a.logger.Debug("document changed", "path", ev.Path, "op", ev.Op)
				if ev.Op.Has(watch.OpRemove) {
					fmt.Fprintf(a.out, "%s removed\n", path)
					return nil
				}
				a.report(path)
				return nil
			}, watch.WithLogger(logging.WithComponent(a.logger, "watch")))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// report prints the open changes of the document at path. Load errors are
// printed rather than returned so that watching continues.
func (a *app) report(path string) {
	s, err := a.openDocument(path, engine.WithReadOnly())
	if err != nil {
		fmt.Fprintf(a.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(a.out, "== %s (%d positions)\n", path, s.Len())
	writeChanges(a.out, s.Changes())
}
