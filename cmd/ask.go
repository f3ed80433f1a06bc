package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/console"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
)

var (
	askProvider string
	askQuiet    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <text...>",
	Short: "Send one message and print the reply",
	Example: `  erpgenie ask "show monthly sales for 2024"
  erpgenie ask --provider openai "top 5 customers by revenue"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, provider, err := newRuntime(cfg, askProvider)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		resp, err := rt.Send(ctx, ai.ChatRequest{Text: strings.Join(args, " ")})
		if err != nil {
			return fmt.Errorf("%s: %w", provider, err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, resp.Text)
		if askQuiet {
			return nil
		}
		t := parser.Extract(resp.Text)
		if t == nil {
			return nil
		}
		fmt.Fprintln(out)
		if err := console.RenderTable(out, t); err != nil {
			return err
		}
		printClassification(out, t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askProvider, "provider", "", "chat runtime: webhook|openai (overrides config)")
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "print only the reply text")
}
