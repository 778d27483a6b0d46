package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cchalm/repo-assistant/internal/api"
	"github.com/cchalm/repo-assistant/internal/tools"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolver and tools over HTTP",
	Long: `Serves the HTTP API:

  GET  /v1/health
  POST /v1/resolve      {"text": "...", "per_page": 5}
  POST /v1/ask          {"text": "...", "per_page": 5}
  GET  /v1/tools
  POST /v1/tools/:name  tool parameters as a JSON object`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 0, "Port to listen on (default $PORT or 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if port == 0 {
		port = cfg.Port
	}

	gh, err := createGitHubClient(ctx)
	if err != nil {
		return err
	}

	e := api.New(api.Config{Dev: cfg.IsDev()}, api.Deps{
		GitHub:          gh,
		Resolver:        createResolver(),
		FallbackPerPage: cfg.DefaultPerPage,
		Registry:        tools.NewToolRegistry(),
	}, logger)

	return api.Run(ctx, e, port, logger)
}
