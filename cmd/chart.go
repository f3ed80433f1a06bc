package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/chart"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

var (
	chartOutput string
	chartFormat string
)

var chartCmd = &cobra.Command{
	Use:   "chart <bar|line|pie> [file|-]",
	Short: "Render a chart from the table found in text",
	Example: `  erpgenie chart bar reply.md -o sales.png
  erpgenie chart pie --format svg < reply.txt
  erpgenie chart line reply.json --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := chart.ParseKind(args[0])
		if err != nil {
			return err
		}
		text, err := utils.ReadInput(argOrStdin(args[1:]), cmd.InOrStdin())
		if err != nil {
			return err
		}
		t := parser.Extract(text)
		if t == nil {
			return fmt.Errorf("no table found in input")
		}
		spec, err := chart.Build(kind, t)
		if errors.Is(err, chart.ErrNotGraphable) {
			return errors.New(chart.NotGraphableMessage(kind))
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if chartFormat == "json" {
			b, err := utils.PrettyJSON(spec)
			if err != nil {
				return err
			}
			if chartOutput == "" || chartOutput == "-" {
				fmt.Fprintln(out, string(b))
				return nil
			}
			if err := utils.SafeWriteFile(chartOutput, b); err != nil {
				return err
			}
			fmt.Fprintf(out, "💾 Saved chart spec to %s\n", chartOutput)
			return nil
		}

		f, err := chart.ParseFormat(chartFormat)
		if err != nil {
			return err
		}
		w, h := chartSize(cfg)
		data, err := renderChart(kind, t, f, w, h)
		if err != nil {
			return err
		}
		path := chartOutput
		if path == "-" {
			_, err := out.Write(data)
			return err
		}
		if path == "" {
			dir := outputDir(cfg)
			if err := utils.EnsureDir(dir); err != nil {
				return fmt.Errorf("ensure output dir: %w", err)
			}
			path = filepath.Join(dir, fmt.Sprintf("erpgenie_%s.%s", kind, f))
		}
		if err := utils.SafeWriteFile(path, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "💾 Saved %s chart to %s\n", kind, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "", "output file (\"-\" for stdout; default <charts_dir>/erpgenie_<kind>.<format>)")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "output format: png|svg|json")
}
