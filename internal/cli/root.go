package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/invoiceforge/internal/app"
	"github.com/roach88/invoiceforge/internal/clock"
	"github.com/roach88/invoiceforge/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string
	ConfigPath string

	// Clock overrides the wall clock. Tests set it.
	Clock clock.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the invoiceforge CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoiceforge",
		Short: "invoiceforge - local invoice drafting",
		Long: `Draft invoices and receipts locally, keep a history of sent invoices
and export them as PDF.

The current draft is saved after every edit. "draft save" moves it into
history and starts a new one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the SQLite database (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the YAML config file (default ./"+config.DefaultFile+")")

	// Add subcommands
	cmd.AddCommand(newDraftCommand(opts))
	cmd.AddCommand(newItemCommand(opts))
	cmd.AddCommand(newHistoryCommand(opts))
	cmd.AddCommand(newSenderCommand(opts))
	cmd.AddCommand(newClientCommand(opts))
	cmd.AddCommand(newServiceCommand(opts))
	cmd.AddCommand(newSettingsCommand(opts))
	cmd.AddCommand(newTemplatesCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newImportCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   o.Verbose,
	}
}

// session is one command's view of the application.
type session struct {
	*app.App
	out    *OutputFormatter
	logger *zap.Logger
}

// run loads the configuration, opens the application and calls fn. Errors
// from any step are reported through the formatter. The application is
// closed afterwards, which writes any pending draft edit.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context, s *session) error) error {
	out := o.formatter(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return out.Fail(&configError{err: err})
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}

	logger, err := newLogger(cfg, o.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return out.Fail(&configError{err: err})
	}
	defer func() { _ = logger.Sync() }()

	out.VerboseLog("Using database %s", cfg.DBPath)
	opts := []app.Option{app.WithLogger(logger)}
	if o.Clock != nil {
		opts = append(opts, app.WithClock(o.Clock))
	}
	a := app.New(ctx, cfg, opts...)
	if err := a.StorageErr(ctx); err != nil {
		_ = a.Close(ctx)
		return out.Fail(err)
	}
	if err := a.Wait(ctx); err != nil {
		_ = a.Close(ctx)
		return out.Fail(err)
	}

	runErr := fn(ctx, &session{App: a, out: out, logger: logger})
	closeErr := a.Close(ctx)
	if runErr != nil {
		return out.Fail(runErr)
	}
	if closeErr != nil {
		return out.Fail(closeErr)
	}
	return nil
}

// newLogger builds the zap logger for a command. Verbose runs get the
// development encoder at debug level; otherwise JSON at the configured level.
// Logs always go to w so they never mix with command output.
func newLogger(cfg config.Config, verbose bool, w io.Writer) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	encCfg := zap.NewProductionEncoderConfig()
	encoder := zapcore.NewJSONEncoder(encCfg)
	if verbose {
		level = zapcore.DebugLevel
		encCfg = zap.NewDevelopmentEncoderConfig()
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	return zap.New(core), nil
}
