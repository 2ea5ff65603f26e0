package main

import (
	"github.com/koustreak/sqlsheet/internal/export"
	"github.com/koustreak/sqlsheet/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve exports over HTTP",
	Long: `Starts an HTTP server. POST a query as the request body to /exports
and the response is the workbook. GET /healthz pings the database.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("addr") {
			settings.Server.Addr = serveAddr
		}
		ctx := cmd.Context()

		db, err := openDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		exp := export.New(db,
			export.WithLogger(log),
			export.WithWorkers(settings.Workers),
		)
		return server.New(db, exp, log).ListenAndServe(ctx, settings.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, :8080)")
}
