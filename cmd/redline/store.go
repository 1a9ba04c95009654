package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/engine"
	"github.com/dshills/redline/internal/logging"
	"github.com/dshills/redline/internal/store"
)

func (a *app) storeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage documents in the configured store",
	}
	cmd.AddCommand(a.storePutCmd(), a.storeGetCmd(), a.storeListCmd(), a.storeRemoveCmd())
	return cmd
}

func (a *app) withStore(fn func(store.Store) error) error {
	st, err := store.Open(a.cfg.Store, logging.WithComponent(a.logger, "store"))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (a *app) storePutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Validate a document and store it under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openDocument(args[1], engine.WithReadOnly())
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			return a.withStore(func(st store.Store) error {
				if err := st.Put(cmd.Context(), args[0], data); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "stored %s (%d open changes)\n", args[0], len(s.Changes()))
				return nil
			})
		},
	}
}

func (a *app) storeGetCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st store.Store) error {
				doc, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = a.out.Write(doc.Data)
					return err
				}
				return os.WriteFile(output, doc.Data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default standard output)")
	return cmd
}

func (a *app) storeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(func(st store.Store) error {
				docs, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tUPDATED")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", d.Name, d.Size, d.UpdatedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			})
		},
	}
}

func (a *app) storeRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm NAME",
		Aliases: []string{"delete"},
		Short:   "Remove a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st store.Store) error {
				return st.Delete(cmd.Context(), args[0])
			})
		},
	}
}
