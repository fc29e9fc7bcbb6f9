package cmd

import (
	"github.com/spf13/cobra"

	"medianode/config"
	httpserver "medianode/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start the ingestion and delivery server",
		Run: func(cmd *cobra.Command, args []string) {
			httpserver.RunHttp(config)
		},
	}
}
