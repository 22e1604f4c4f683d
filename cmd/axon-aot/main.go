package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/toyz/axon-aot/internal/cli"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// reportedError marks an error the user has already been shown
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

type rootOptions struct {
	verbose bool
	quiet   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "axon-aot",
		Short: "Ahead-of-time compiler for component graphs",
		Long: `axon-aot compiles a container snapshot into Go registration code and a
manifest of the reflection, proxy, resource, serialization and
initialization capabilities that code still needs at run time.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output and detailed error reporting")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "Only show errors and final results")

	root.AddCommand(newCompileCmd(opts))
	root.AddCommand(newCleanCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

func newCompileCmd(opts *rootOptions) *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "compile <snapshot>",
		Short: "Compile a container snapshot into registration code",
		Example: `  axon-aot compile snapshot.yaml --out ./internal/aot
  axon-aot compile snapshot.yaml --exclude legacyService --disable web-handlers
  AXON_AOT_BATCH_SIZE=200 axon-aot compile snapshot.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cli.LoadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			config.Snapshot = args[0]
			return runCompile(cmd.Context(), config)
		},
	}
	cli.AddFlags(cmd.Flags())
	cmd.Flags().StringVar(&configFile, "config", "", "Config file (default: ./axon-aot.yaml)")
	return cmd
}

func runCompile(ctx context.Context, config *cli.Config) error {
	diagnostics := cli.NewDiagnostics(config.Verbose, config.Quiet)
	reporter := cli.NewDiagnosticReporter(config.Verbose)

	logger, err := cli.NewLogger(config.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	diagnostics.Header("compiling " + config.Snapshot)
	summary, err := cli.NewGenerator(diagnostics, reporter, logger).Run(ctx, config)
	if err != nil {
		reporter.ReportError(err)
		return reportedError{err}
	}

	diagnostics.Summary("Compilation Complete!", map[string]interface{}{
		"Components": summary.Components,
		"Compiled":   summary.Processed,
		"Excluded":   summary.Excluded,
		"Units":      summary.Units,
		"Manifest":   summary.ManifestEntries,
	})
	if config.Verbose {
		reporter.ReportSuccess(*summary)
	}
	diagnostics.Complete(fmt.Sprintf("wrote %d files (run %s)", len(summary.GeneratedFiles), summary.RunID))
	return nil
}

func newCleanCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clean <directory-paths...>",
		Short: "Delete generated files",
		Long: `Deletes generated zz_aot_* files. Go-style patterns such as ./... clean
directories recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diagnostics := cli.NewDiagnostics(opts.verbose, opts.quiet)
			diagnostics.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())

			removed, err := cli.NewCleaner().CleanGeneratedFiles(args)
			for _, path := range removed {
				diagnostics.Verbose("removed %s", path)
			}
			if err != nil {
				diagnostics.Error("Clean operation failed: %v", err)
				return reportedError{err}
			}
			diagnostics.Success("removed %d generated files", len(removed))
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "axon-aot %s\n", version)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
