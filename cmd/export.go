package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/export"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

var (
	exportOutput string
	exportFormat string
	exportBOM    bool
)

var exportCmd = &cobra.Command{
	Use:   "export [file|-]",
	Short: "Export the table found in text as CSV, XLSX or PDF",
	Example: `  erpgenie export reply.md
  erpgenie export reply.json --format xlsx -o sales.xlsx
  erpgenie export --format csv -o - < reply.txt`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		text, err := utils.ReadInput(argOrStdin(args), cmd.InOrStdin())
		if err != nil {
			return err
		}
		t := parser.Extract(text)
		if t == nil {
			return fmt.Errorf("no table found in input")
		}
		var buf bytes.Buffer
		if f == export.FormatCSV {
			err = export.WriteCSV(&buf, t, export.CSVOptions{BOM: exportBOM})
		} else {
			err = export.Write(&buf, t, f)
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if exportOutput == "-" {
			_, err := out.Write(buf.Bytes())
			return err
		}
		path := exportOutput
		if path == "" {
			dir := outputDir(cfg)
			if err := utils.EnsureDir(dir); err != nil {
				return fmt.Errorf("ensure output dir: %w", err)
			}
			path = filepath.Join(dir, export.FileName(0, f))
		}
		if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
			return err
		}
		fmt.Fprintf(out, "💾 Exported %d rows to %s\n", t.Len(), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (\"-\" for stdout; default <charts_dir>/erpgenie_data_0.<format>)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv|xlsx|pdf")
	exportCmd.Flags().BoolVar(&exportBOM, "bom", false, "prefix CSV output with a UTF-8 byte order mark for Excel")
}
