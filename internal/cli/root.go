// Package cli provides the command-line interface for skiff.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/xabinapal/skiff/internal/config"
	"github.com/xabinapal/skiff/internal/editor"
	"github.com/xabinapal/skiff/internal/guard"
	"github.com/xabinapal/skiff/internal/logging"
	"github.com/xabinapal/skiff/internal/notify"
	"github.com/xabinapal/skiff/internal/profile"
	"github.com/xabinapal/skiff/internal/store"
)

// CLI holds the application state for the CLI.
type CLI struct {
	Config *config.Config
	Logger *logging.Logger

	rootCmd  *cobra.Command
	store    store.Store
	notifier notify.Notifier

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	confirm func(title string) (bool, error)

	// Flags
	configFlag  string
	verboseFlag bool
	outputFlag  string
}

// Option configures a CLI.
type Option func(*CLI)

// WithIO replaces the standard streams.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(cli *CLI) {
		cli.stdin = in
		cli.stdout = out
		cli.stderr = errOut
	}
}

// WithConfirm replaces the interactive confirmation prompt.
func WithConfirm(fn func(title string) (bool, error)) Option {
	return func(cli *CLI) {
		cli.confirm = fn
	}
}

// WithNotifier replaces the desktop notifier built from the configuration.
func WithNotifier(n notify.Notifier) Option {
	return func(cli *CLI) {
		cli.notifier = n
	}
}

// New creates a new CLI instance.
func New(opts ...Option) *CLI {
	cli := &CLI{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		confirm: confirmPrompt,
	}
	for _, opt := range opts {
		opt(cli)
	}

	cli.rootCmd = &cobra.Command{
		Use:   "skiff [command]",
		Short: "skiff - custom tunnel profile manager",
		Long: `skiff stores and edits custom tunnel profiles: raw V2Ray/Xray or
sing-box JSON configurations kept verbatim, with the display name and the
proxy server endpoint extracted for listing.

The profile selected for the running tunnel is locked: it cannot be edited or
deleted until another profile is selected.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return cli.Logger.Close()
		},
	}

	cli.rootCmd.SetIn(cli.stdin)
	cli.rootCmd.SetOut(cli.stdout)
	cli.rootCmd.SetErr(cli.stderr)

	// Global flags
	cli.rootCmd.PersistentFlags().StringVar(&cli.configFlag, "config", "", "Path to the configuration file")
	cli.rootCmd.PersistentFlags().BoolVarP(&cli.verboseFlag, "verbose", "v", false, "Enable verbose output")
	cli.rootCmd.PersistentFlags().StringVarP(&cli.outputFlag, "output", "o", "text", "Output format (text, json)")

	cli.rootCmd.AddCommand(
		cli.newVersionCmd(),
		cli.newProfileCmd(),
		cli.newConfigCmd(),
		cli.newCompletionCmd(),
	)

	return cli
}

// initialize loads configuration and sets up logging.
// The store is opened lazily so 'config validate' works on a broken setup.
func (cli *CLI) initialize(cmd *cobra.Command) error {
	if _, err := ParseOutputFormat(cli.outputFlag); err != nil {
		return err
	}

	var (
		cfg *config.Config
		err error
	)
	if cli.configFlag != "" {
		cfg, err = config.LoadFrom(cli.configFlag)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cli.Config = cfg

	logger, err := newLogger(cfg.Log, cli.verboseFlag, cli.stderr)
	if err != nil {
		return err
	}
	cli.Logger = logger

	if cli.notifier == nil {
		cli.notifier = notify.New(cfg.Notifications)
	}
	return nil
}

// newLogger builds the logger from configuration. Without a log file only
// errors reach the terminal, unless verbose output is requested.
func newLogger(cfg config.LogConfig, verbose bool, stderr io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	if cfg.File == "" && level < logging.LevelError {
		level = logging.LevelError
	}
	if verbose {
		level = logging.LevelDebug
	}

	logger, err := logging.New(logging.Config{
		Level:    level,
		FilePath: cfg.File,
		JSONMode: cfg.JSON,
		MaxSize:  int64(cfg.MaxSize) * 1024 * 1024,
		Writer:   stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	return logger, nil
}

// Store returns the profile store, opening it on first use.
func (cli *CLI) Store() (store.Store, error) {
	if cli.store != nil {
		return cli.store, nil
	}
	st, err := store.New(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile store: %w", err)
	}
	if err := st.IsAvailable(); err != nil {
		return nil, fmt.Errorf("profile store unavailable: %w", err)
	}
	cli.store = st
	return st, nil
}

// selection returns the active selection backed by the config file.
func (cli *CLI) selection() *config.Selection {
	return config.NewSelection(cli.Config.FilePath())
}

func (cli *CLI) manager() (*profile.Manager, error) {
	st, err := cli.Store()
	if err != nil {
		return nil, err
	}
	return profile.NewManager(st, cli.selection()), nil
}

func (cli *CLI) guard() *guard.Guard {
	return guard.New(cli.selection(), cli.Logger)
}

func (cli *CLI) editorService(format OutputFormat) (*editor.Service, error) {
	st, err := cli.Store()
	if err != nil {
		return nil, err
	}
	return editor.NewService(st,
		editor.WithGuard(cli.guard()),
		editor.WithLogger(cli.Logger),
		editor.WithPresenter(newPresenter(cli, format)),
	), nil
}

// Execute runs the CLI.
func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs sets the command line arguments, for tests and embedding.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

// reportedError marks an error that was already shown by the presenter.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// reported wraps rejections from the editor, which the presenter has shown.
func reported(err error) error {
	var verr *editor.ValidationError
	if errors.As(err, &verr) {
		return &reportedError{err: err}
	}
	return err
}

// confirmPrompt asks a yes/no question on the terminal.
func confirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&ok),
		),
	).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}
