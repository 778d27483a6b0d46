package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/githubapi"
	"github.com/cchalm/repo-assistant/internal/intent"
	"github.com/cchalm/repo-assistant/internal/tools"
)

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-interrupt
		logger.Info("interrupt signal detected, shutting down gracefully")
		cancel()
		<-interrupt
		logger.Fatal("forcing shutdown")
	}()

	return ctx
}

func createGitHubClient(ctx context.Context) (*githubapi.Client, error) {
	if cfg.GitHubToken == "" {
		logger.Warn("GITHUB_TOKEN is not set; requests are unauthenticated and heavily rate limited")
	}
	return githubapi.NewClient(ctx, githubapi.Options{
		Token:   cfg.GitHubToken,
		BaseURL: cfg.GitHubAPIURL,
		Logger:  logger,
	})
}

func createResolver() intent.Resolver {
	return intent.Resolver{FallbackOrg: cfg.FallbackOrg}
}

func createToolContext(gh tools.GitHub) tools.ToolContext {
	return tools.ToolContext{
		GitHub:          gh,
		Resolver:        createResolver(),
		FallbackPerPage: cfg.DefaultPerPage,
		Logger:          logger,
	}
}

func requestText(args []string) (string, error) {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return "", fmt.Errorf("a request is required, e.g. \"show 5 issues from vercel/next.js\"")
	}
	return text, nil
}

// reportError prints errors a person can act on in plain words and returns the rest
func reportError(err error) error {
	if tools.Recoverable(err) {
		logger.Debug("request failed", zap.Error(err))
		return fmt.Errorf("%s", tools.UserMessage(err))
	}
	return err
}
