package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/engine"
	"github.com/dshills/redline/internal/logging"
	"github.com/dshills/redline/internal/script"
)

var errNoChanges = errors.New("no change ids given")

func (a *app) resolveCmd(action, short string, accept bool) *cobra.Command {
	var (
		output string
		all    bool
		author string
	)
	cmd := &cobra.Command{
		Use:   action + " FILE [ID...]",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openDocument(args[0])
			if err != nil {
				return err
			}

			var n int
			switch {
			case all:
				if author == "" {
					author = a.cfg.Review.Author
				}
				if accept {
					n, err = s.AcceptAll(author)
				} else {
					n, err = s.RejectAll(author)
				}
			case len(args) > 1:
				ids, perr := parseIDs(args[1:])
				if perr != nil {
					return perr
				}
				decisions := make(map[engine.ChangeID]bool, len(ids))
				for _, id := range ids {
					decisions[id] = accept
				}
				n, err = s.Resolve(decisions)
			default:
				return errNoChanges
			}
			if err != nil {
				return err
			}

			a.logger.Info("resolved changes", "action", action, "count", n)
			return a.saveDocument(s, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default standard output)")
	cmd.Flags().BoolVar(&all, "all", false, "resolve every open change")
	cmd.Flags().StringVar(&author, "author", "", "with --all, only changes by this author")
	return cmd
}

func parseIDs(args []string) ([]engine.ChangeID, error) {
	ids := make([]engine.ChangeID, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid change id %q", arg)
		}
		ids = append(ids, engine.ChangeID(n))
	}
	return ids, nil
}

func (a *app) reviewCmd() *cobra.Command {
	var (
		output     string
		scriptPath string
		dryRun     bool
	)
	cmd := &cobra.Command{
		Use:   "review FILE",
		Short: "Resolve changes with a Lua rules script",
		Long: `review runs the script's decide(change) function for every open change.
decide returns "accept", "reject" or nothing to leave the change open.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if scriptPath == "" {
				scriptPath = a.cfg.Review.Script
			}
			if scriptPath == "" {
				return errors.New("no rules script given")
			}

			rules, err := script.LoadFile(scriptPath,
				script.WithLogger(logging.WithComponent(a.logger, "script")))
			if err != nil {
				return err
			}
			defer rules.Close()

			s, err := a.openDocument(args[0])
			if err != nil {
				return err
			}
			plan, err := rules.Plan(cmd.Context(), s.Changes())
			if err != nil {
				return err
			}

			if dryRun {
				for _, c := range s.Changes() {
					accept, ok := plan[c.ID]
					switch {
					case !ok:
						fmt.Fprintf(a.out, "#%d skip\n", c.ID)
					case accept:
						fmt.Fprintf(a.out, "#%d accept\n", c.ID)
					default:
						fmt.Fprintf(a.out, "#%d reject\n", c.ID)
					}
				}
				return nil
			}

			n, err := s.Resolve(plan)
			if err != nil {
				return err
			}
			a.logger.Info("reviewed changes", "script", scriptPath, "resolved", n)
			return a.saveDocument(s, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default standard output)")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "Lua rules file (default review.script)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print decisions without resolving")
	return cmd
}
