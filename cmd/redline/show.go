package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/engine"
)

func (a *app) showCmd() *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a document and its open changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openDocument(args[0], engine.WithReadOnly())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, s.Text())
			if textOnly {
				return nil
			}
			fmt.Fprintln(a.out)
			writeChanges(a.out, s.Changes())
			return nil
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the document text")
	return cmd
}

func writeChanges(w io.Writer, list []engine.ChangeInfo) {
	if len(list) == 0 {
		fmt.Fprintln(w, "no open changes")
		return
	}
	for _, c := range list {
		line := fmt.Sprintf("#%d %s", c.ID, c.Kind)
		if c.Author != "" {
			line += " by " + c.Author
		}
		if c.Date != "" {
			line += " on " + c.Date
		}
		if c.Parent != 0 {
			line += fmt.Sprintf(" (in #%d)", c.Parent)
		}
		fmt.Fprintf(w, "%s: %q\n", line, c.Preview)
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats FILE",
		Short: "Load a document and print load statistics and metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openDocument(args[0], engine.WithReadOnly())
			if err != nil {
				return err
			}
			st := s.LastLoad()
			fmt.Fprintf(a.out, "declared: %d\n", st.Declared)
			fmt.Fprintf(a.out, "open: %d\n", len(s.Changes()))
			fmt.Fprintf(a.out, "length: %d\n", s.Len())

			snap, err := s.Metrics().Snapshot()
			if err != nil {
				return err
			}
			names := make([]string, 0, len(snap))
			for name := range snap {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(a.out, "%s %s\n", name, strconv.FormatFloat(snap[name], 'g', -1, 64))
			}
			return nil
		},
	}
}
