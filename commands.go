package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dam/internal/catalog"
	"dam/internal/logging"
	"dam/internal/media"
	"dam/internal/memory"
	"dam/internal/startup"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a catalog in the root directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Init(cmd.Context(), ctx.dir, ctx.catalogOptions()...)
			if errors.Is(err, catalog.ErrAlreadyInitialized) {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog already set up in %s\n", ctx.dir)
				return nil
			}
			if err != nil {
				return err
			}
			defer cat.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized catalog in %s\n", cat.Root())
			return nil
		},
	}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Catalog new files and move them into the date layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := memory.Configure(ctx.config.MemoryLimit); err != nil {
				return err
			}
			if ctx.config.Thumbnails.Enabled && ctx.config.Thumbnails.Vips {
				if err := media.InitVips(); err != nil {
					logging.Warn("libvips unavailable, using Go decoders: %v", err)
				} else {
					defer media.ShutdownVips()
				}
			}

			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				result, err := cat.Scan(cmd.Context())
				if err != nil {
					if result.Files > 0 {
						fmt.Fprintf(cmd.ErrOrStderr(), "Scan stopped after %d files\n", result.Files)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cataloged %s (%d moved, %d thumbnails",
					pluralFiles(result.Files), result.Moved, result.Thumbnails)
				if result.ThumbnailFailures > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), ", %d without thumbnail", result.ThumbnailFailures)
				}
				fmt.Fprintf(cmd.OutOrStdout(), ") in %v\n", result.Duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				entries, err := cat.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, entryViews(entries))
				}
				printEntries(cmd, cat.Root(), entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newFindCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "find <name>",
		Short: "Print the path of the first file whose name contains <name>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				entry, err := cat.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), entry.Path)
				return nil
			})
		},
	}
}

func newOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <name>",
		Short: "Open the first file whose name contains <name>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				entry, err := cat.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", entry.Path)
				return nil
			})
		},
	}
}

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show catalog details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				info, err := cat.Info(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, info)
				}
				rows := [][]string{
					{"Root", info.Root},
					{"Catalog ID", info.CatalogID},
					{"Schema", fmt.Sprintf("v%d", info.SchemaVersion)},
					{"Created", fmt.Sprintf("%s (%s)", info.CreatedAt.Local().Format(time.DateTime), humanize.Time(info.CreatedAt))},
					{"Last scan", lastScan(info.LastScanAt)},
					{"Entries", humanize.Comma(int64(info.Entries))},
					{"Store size", humanize.Bytes(uint64(info.SizeBytes))},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newThumbnailCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "thumbnail <name>",
		Short: "Write the stored thumbnail of a file as JPEG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(cmd, func(cat *catalog.Catalog) error {
				entry, data, err := cat.Thumbnail(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return fmt.Errorf("%w: write thumbnail: %w", catalog.ErrIO, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote thumbnail of %s to %s (%s)\n",
					entry.Name, output, humanize.Bytes(uint64(len(data))))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and tool information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := startup.GetBuildInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "dam %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildTime)
			fmt.Fprintf(out, "%s %s/%s\n", info.GoVersion, info.OS, info.Arch)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if v, err := startup.FFmpegVersion(ctx); err != nil {
				fmt.Fprintln(out, "ffmpeg: not found (video thumbnails disabled)")
			} else {
				fmt.Fprintf(out, "ffmpeg: %s\n", v)
			}
			return nil
		},
	}
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%s files", humanize.Comma(int64(n)))
}

func lastScan(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format(time.DateTime), humanize.Time(t))
}
