package main

import (
	"os"

	"github.com/spf13/cobra"

	"dam/internal/catalog"
	"dam/internal/filesystem"
	"dam/internal/launcher"
	"dam/internal/logging"
	"dam/internal/media"
	"dam/internal/metrics"
	"dam/internal/startup"
)

// commandContext carries global flags and the configuration loaded for
// the catalog directory.
type commandContext struct {
	dir             string
	verbose         bool
	metricsTextfile string

	config *startup.Config
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "dam",
		Short:         "Catalog and sort files by creation date",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx.setupLogging(cmd)
			if cmd.Name() == "version" {
				return nil
			}
			return ctx.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.dir, "dir", "d", ".", "Catalog root directory")
	rootCmd.PersistentFlags().BoolVarP(&ctx.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ctx.metricsTextfile, "metrics-textfile", "", "Write Prometheus metrics to this file after each command")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newFindCommand(ctx))
	rootCmd.AddCommand(newOpenCommand(ctx))
	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newThumbnailCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// setupLogging sends logs to stderr. Without --verbose or an explicit
// LOG_LEVEL only warnings are shown, keeping stdout and stderr readable.
func (c *commandContext) setupLogging(cmd *cobra.Command) {
	logging.SetOutput(cmd.ErrOrStderr())
	switch {
	case c.verbose:
		logging.SetLevel(logging.LevelDebug)
	case os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "":
		logging.SetLevel(logging.LevelWarn)
	}
}

func (c *commandContext) loadConfig() error {
	cfg, err := startup.LoadConfig(c.dir)
	if err != nil {
		return err
	}
	if c.metricsTextfile != "" {
		cfg.MetricsTextfile = c.metricsTextfile
	}
	c.config = cfg

	metrics.InitializeMetrics()
	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	return nil
}

// catalogOptions maps the configuration onto catalog options.
func (c *commandContext) catalogOptions() []catalog.Option {
	t := c.config.Thumbnails
	return []catalog.Option{
		catalog.WithThumbnails(t.Enabled),
		catalog.WithThumbnailer(media.NewThumbnailGenerator(media.Options{
			Width:   t.Width,
			Height:  t.Height,
			Quality: t.Quality,
			UseVips: t.Vips,
		})),
		catalog.WithLauncher(launcher.System{Opener: c.config.Opener}),
	}
}

// withCatalog loads the catalog at the configured root and runs fn with
// it. Metrics are flushed afterwards whether fn succeeds or not.
func (c *commandContext) withCatalog(cmd *cobra.Command, fn func(*catalog.Catalog) error) error {
	defer c.flushMetrics()

	cat, err := catalog.Load(cmd.Context(), c.dir, c.catalogOptions()...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cat.Close(); cerr != nil {
			logging.Warn("failed to close catalog: %v", cerr)
		}
	}()
	return fn(cat)
}

func (c *commandContext) flushMetrics() {
	if c.config == nil || c.config.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(c.config.MetricsTextfile); err != nil {
		logging.Warn("%v", err)
		return
	}
	logging.Debug("Wrote metrics to %s", c.config.MetricsTextfile)
}
