// Package cli implements the chatkit command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/chatkit"
	"github.com/user/chatkit/internal/config"
	"github.com/user/chatkit/internal/logging"
)

var (
	configFlag   string
	modelFlag    string
	baseURLFlag  string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chatkit",
	Short: "Chat with OpenAI-compatible endpoints from the terminal",
	Long: `chatkit talks to any OpenAI-style chat-completion endpoint.

It can answer one-shot questions (with local tool calling), stream responses
as they are generated, and extract structured JSON from free-form text.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model name override")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Endpoint base URL override")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
}

// setup loads configuration, builds the logger, and constructs the client.
func setup() (*chatkit.Client, *zap.Logger, error) {
	overrides := map[string]any{}
	if modelFlag != "" {
		overrides["llm.model"] = modelFlag
	}
	if baseURLFlag != "" {
		overrides["llm.base_url"] = baseURLFlag
	}
	if logLevelFlag != "" {
		overrides["logging.level"] = logLevelFlag
	}

	cfg, err := config.Load(configFlag, overrides)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		File:    cfg.Logging.File,
		Console: cfg.Logging.Console,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	client, err := chatkit.NewClient(
		chatkit.WithAPIKey(cfg.LLM.APIKey),
		chatkit.WithBaseURL(cfg.LLM.BaseURL),
		chatkit.WithModel(cfg.LLM.Model),
		chatkit.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, logger, nil
}
