package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/chatkit"
)

var streamFlag bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the model a one-shot question",
	Long: `Send a single question to the configured model and print the answer.

The model may call the built-in current_time tool while answering. With
--stream the answer is printed incrementally as it is generated.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&streamFlag, "stream", false, "Print the answer as it streams")
	rootCmd.AddCommand(askCmd)
}

type timeArgs struct {
	Timezone string `json:"timezone,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	client, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	question := strings.Join(args, " ")
	ctx := context.Background()

	if streamFlag {
		err := client.Stream(ctx, question, func(delta string, final bool) {
			fmt.Print(delta)
			if final {
				fmt.Println()
			}
		})
		return err
	}

	clock, err := chatkit.NewTool("current_time",
		"Returns the current date and time, optionally in an IANA timezone.",
		func(ctx context.Context, args timeArgs) (string, error) {
			loc := time.Local
			if args.Timezone != "" {
				l, err := time.LoadLocation(args.Timezone)
				if err != nil {
					return "", fmt.Errorf("unknown timezone %q", args.Timezone)
				}
				loc = l
			}
			return time.Now().In(loc).Format(time.RFC1123), nil
		})
	if err != nil {
		return err
	}

	answer, err := client.GenerateText(ctx,
		[]chatkit.Message{chatkit.UserMessage(question)},
		chatkit.WithTools(chatkit.ToolList(clock)),
		chatkit.WithToolObserver(func(name string) {
			logger.Info("model requested tool", zap.String("tool", name))
		}),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, answer)
	return nil
}
