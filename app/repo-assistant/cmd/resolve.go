package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/render"
	"github.com/cchalm/repo-assistant/internal/tools"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve REQUEST...",
	Short: "Show how a request would be understood, without calling GitHub",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResolve,
}

var runCmd = &cobra.Command{
	Use:   "run REQUEST...",
	Short: "Resolve a request and run it against GitHub",
	Example: `  repo-assistant run show 5 issues from vercel/next.js
  repo-assistant run --json "tambo-ai org repos"
  repo-assistant run summarize spf13/cobra`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	resolveCmd.Flags().BoolVar(&flags.json, "json", false, "Print JSON instead of a table")
	runCmd.Flags().BoolVar(&flags.json, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(runCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	text, err := requestText(args)
	if err != nil {
		return err
	}

	in := createResolver().Resolve(text, cfg.DefaultPerPage)
	logger.Debug("resolved request", zap.String("rule", intent.Explain(text)), zap.String("kind", string(in.Kind)))
	if flags.json {
		return render.JSON(os.Stdout, in)
	}
	if err := render.Intent(os.Stdout, in); err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, in.String())
	return err
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	text, err := requestText(args)
	if err != nil {
		return err
	}

	gh, err := createGitHubClient(ctx)
	if err != nil {
		return err
	}
	toolCtx := createToolContext(gh)

	res, err := tools.ResolveAndDispatch(ctx, &toolCtx, text, 0)
	if err != nil {
		return reportError(err)
	}

	if flags.json {
		return render.JSON(os.Stdout, res)
	}
	return render.Result(os.Stdout, res)
}
