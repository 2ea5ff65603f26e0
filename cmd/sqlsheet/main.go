// Command sqlsheet exports the result of a SQL query to an .xlsx workbook.
//
//	sqlsheet export                       # settings.yaml / settings.json + query.sql
//	sqlsheet export --table dbo.Orders --limit 100 --preview
//	sqlsheet tables dbo.Orders
//	sqlsheet serve --addr :8080
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/sqlsheet/internal/config"
	"github.com/koustreak/sqlsheet/internal/logger"
	"github.com/spf13/cobra"
)

// defaultConfigPaths are tried in order when --config is not given.
var defaultConfigPaths = []string{"settings.yaml", "settings.yml", "settings.json"}

var (
	configPath string

	settings *config.Settings
	log      *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:           "sqlsheet",
	Short:         "Export SQL query results to spreadsheets",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath(configPath)
		if err != nil {
			return err
		}
		settings, err = config.Load(path)
		if err != nil {
			return err
		}
		log = logger.New(settings.LoggerConfig())
		log.Debugf("loaded settings from %s", path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "settings file (default settings.yaml, then settings.json)")
	rootCmd.AddCommand(exportCmd, serveCmd, tablesCmd)
}

func resolveConfigPath(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("no settings file found (tried %v); pass --config", defaultConfigPaths)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
