package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/chatkit"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [text]",
	Short: "Extract a structured summary from text",
	Long: `Summarize text into a structured JSON object with a title and key
points. Reads from stdin when no argument is given.`,
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

// summary is the structured output schema for the summarize command.
type summary struct {
	Title     string   `json:"title"`
	KeyPoints []string `json:"key_points"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	client, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text := strings.Join(args, " ")
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to summarize")
	}

	result, err := chatkit.GenerateObject[summary](context.Background(), client,
		"Summarize the following text:\n\n"+text)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
