package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/analysis"
	"github.com/KaramelBytes/erpgenie-cli/internal/console"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

var extractJSON bool

var extractCmd = &cobra.Command{
	Use:   "extract [file|-]",
	Short: "Detect a table in text (JSON, Markdown or key: value lines)",
	Example: `  erpgenie extract reply.txt
  echo "Revenue: $500
Cost: $200" | erpgenie extract --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := utils.ReadInput(argOrStdin(args), cmd.InOrStdin())
		if err != nil {
			return err
		}
		t := parser.Extract(text)
		out := cmd.OutOrStdout()
		if extractJSON {
			payload := map[string]any{
				"table":          t,
				"classification": analysis.Classify(t),
			}
			if t != nil {
				payload["summary"] = analysis.Summarize(t, analysis.DefaultOptions())
			}
			b, err := utils.PrettyJSON(payload)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if t == nil {
			fmt.Fprintln(out, "⚠ No table found")
			return nil
		}
		fmt.Fprintf(out, "✓ Found %s table\n\n", t.Source)
		if err := console.RenderTable(out, t); err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, analysis.Summarize(t, analysis.DefaultOptions()).Markdown())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the table and classification as JSON")
}

func argOrStdin(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}
