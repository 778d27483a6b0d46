package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/repo-assistant/internal/chat"
	"github.com/cchalm/repo-assistant/internal/tools"
)

var chatCmd = &cobra.Command{
	Use:   "chat [MESSAGE...]",
	Short: "Chat with Claude about GitHub repositories",
	Long: `Starts a conversation in which Claude answers using the repo-assistant tools. With a
message, answers it and exits; otherwise reads messages from standard input until EOF.
Requires ANTHROPIC_API_KEY.`,
	RunE: runChat,
}

var transcriptPath string

func init() {
	chatCmd.Flags().StringVar(&transcriptPath, "transcript", "", "Write a markdown transcript of the conversation to this file on exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateChat(); err != nil {
		return err
	}
	ctx := setupContext()

	gh, err := createGitHubClient(ctx)
	if err != nil {
		return err
	}

	systemPrompt, err := chat.SystemPrompt(time.Now(), cfg.DefaultPerPage, cfg.FallbackOrg)
	if err != nil {
		return err
	}

	sender := chat.NewStreamingMessageSender(chat.NewAnthropicClient(cfg.AnthropicAPIKey, logger), logger)
	session := chat.NewSession(sender, tools.NewToolRegistry(), createToolContext(gh), chat.Options{
		Model:        anthropic.Model(cfg.AnthropicModel),
		SystemPrompt: systemPrompt,
		Logger:       logger,
	})
	logger.Info("chat session started", zap.String("session_id", session.ID), zap.String("model", cfg.AnthropicModel))

	if transcriptPath != "" {
		defer writeTranscript(session, transcriptPath)
	}

	if len(args) > 0 {
		return ask(ctx, session, strings.Join(args, " "), os.Stdout)
	}
	return repl(ctx, session, os.Stdin, os.Stdout)
}

func writeTranscript(session *chat.Session, path string) {
	f, err := os.Create(path)
	if err != nil {
		logger.Error("failed to create transcript file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()

	if err := session.WriteTranscript(f, time.Now()); err != nil {
		logger.Error("failed to write transcript", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("wrote transcript", zap.String("path", path))
}

func repl(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text != "" {
			if err := ask(ctx, session, text, out); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// Keep the conversation going; the failed exchange was rolled back
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func ask(ctx context.Context, session *chat.Session, text string, out io.Writer) error {
	reply, err := session.Ask(ctx, text)
	if errors.Is(err, chat.ErrTooManyIterations) {
		return fmt.Errorf("gave up after too many tool calls; try a more specific request")
	}
	if err != nil {
		return err
	}
	if len(reply.ToolCalls) > 0 {
		logger.Debug("tools used", zap.Strings("tools", reply.ToolCalls), zap.Int64("input_tokens", reply.InputTokens))
	}
	_, err = fmt.Fprintln(out, reply.Text)
	return err
}
