// Command entrykit manages entry types: it serves the API and exports or
// diffs the project config files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"entrykit/internal/app"
	"entrykit/internal/auth"
	"entrykit/internal/config"
	"entrykit/internal/logging"
	"entrykit/internal/projectconfig"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "entrykit",
		Short:         "Entry type management service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: app.yaml)")

	cmd.AddCommand(serveCmd(&configPath), configCmd(&configPath), tokenCmd(&configPath))
	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

// withApp loads config, builds the logger and app, and runs fn.
func withApp(configPath string, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Log, "entrykit")
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.App) error {
				addr := fmt.Sprintf(":%d", a.Config.Server.Port)
				a.Logger.Info("Starting server", zap.String("addr", addr))
				return a.Fiber().Listen(addr)
			})
		},
	}
}

func configCmd(configPath *string) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Export or diff entry type project config",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "Project config directory (default: project_config.path)")

	resolve := func(a *app.App) string {
		if dir != "" {
			return dir
		}
		return a.Config.ProjectConfig.Path
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write every entry type to the project config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.App) error {
				paths, err := projectconfig.NewWriter(resolve(a), a.Logger).WriteEntryTypes(a.Registry.All())
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	})

	var asJSON bool
	diff := &cobra.Command{
		Use:   "diff",
		Short: "Show how the database differs from the project config directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(*configPath, func(ctx context.Context, a *app.App) error {
				stored, err := projectconfig.Read(resolve(a))
				if err != nil {
					return err
				}
				diffs := projectconfig.DiffEntryTypes(stored, a.Registry.All())
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(diffs)
				}
				printDiffs(cmd, diffs)
				return nil
			})
		},
	}
	diff.Flags().BoolVar(&asJSON, "json", false, "Print the diff as JSON")
	cmd.AddCommand(diff)

	return cmd
}

func printDiffs(cmd *cobra.Command, diffs []projectconfig.EntryTypeDiff) {
	out := cmd.OutOrStdout()
	if len(diffs) == 0 {
		fmt.Fprintln(out, "No changes")
		return
	}
	for _, d := range diffs {
		fmt.Fprintf(out, "%s %s (%s)\n", d.Status, d.Handle, d.UID)
		for _, c := range d.Changes {
			fmt.Fprintf(out, "  %s: %v -> %v\n", c.Path, c.Old, c.New)
		}
	}
}

func tokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		roles   string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var roleList []string
			for _, r := range strings.Split(roles, ",") {
				if r = strings.TrimSpace(r); r != "" {
					roleList = append(roleList, r)
				}
			}
			token, err := auth.GenerateAccessToken(subject, roleList, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cli", "Token subject")
	cmd.Flags().StringVar(&roles, "roles", "admin", "Comma-separated roles")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	return cmd
}
