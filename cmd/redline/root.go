package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/engine"
	"github.com/dshills/redline/internal/logging"
)

// app holds state shared by all subcommands.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, logger: logging.Discard()}

	root := &cobra.Command{
		Use:   "redline",
		Short: "Inspect and review tracked changes in rich-text documents",
		Long: `redline loads documents carrying tracked insertions, deletions and
format changes, lists them, and accepts or rejects them by hand or
through a Lua rules script.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup() },
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "redline.toml", "path to configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.showCmd(),
		a.statsCmd(),
		a.resolveCmd("accept", "Accept changes and write the result", true),
		a.resolveCmd("reject", "Reject changes and write the result", false),
		a.reviewCmd(),
		a.watchCmd(),
		a.storeCmd(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.LoggerConfig(a.errOut))
	return nil
}

// newSession returns a session configured from the loaded configuration.
func (a *app) newSession(opts ...engine.Option) *engine.Session {
	base := []engine.Option{
		engine.WithLogger(logging.WithComponent(a.logger, "engine")),
		engine.WithAuthor(a.cfg.Author),
		engine.WithRecordChanges(a.cfg.Tracking.Record),
		engine.WithMaxUndoEntries(a.cfg.History.MaxEntries),
	}
	return engine.New(append(base, opts...)...)
}

// openDocument loads the document at path into a new session.
func (a *app) openDocument(path string, opts ...engine.Option) (*engine.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := a.newSession(opts...)
	if err := s.Load(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// saveDocument writes the session to path, or to standard output when path
// is empty or "-".
func (a *app) saveDocument(s *engine.Session, path string) error {
	if path == "" || path == "-" {
		return s.Save(a.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
