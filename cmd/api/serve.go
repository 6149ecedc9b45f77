package main

import (
	"github.com/NewAcropolis/api-sub000/internal/config"
	"github.com/NewAcropolis/api-sub000/internal/migration"
	"github.com/NewAcropolis/api-sub000/internal/observability"
	"github.com/NewAcropolis/api-sub000/internal/server"
	"github.com/NewAcropolis/api-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var snowflakeNode int64

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API that receives PayPal IPN callbacks and serves
orders, receipts and ticket check-in.

Configuration is read from the environment and an optional .env file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			newApp().Run()
			return nil
		},
	}

	cmd.Flags().Int64Var(&snowflakeNode, "node", 1, "snowflake node id for order ids")

	return cmd
}

func newApp() *fx.App {
	return fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
	)
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(snowflakeNode)
}
