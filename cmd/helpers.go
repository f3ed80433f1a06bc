package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/analysis"
	"github.com/KaramelBytes/erpgenie-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/erpgenie-cli/internal/config"
	"github.com/KaramelBytes/erpgenie-cli/internal/export"
	"github.com/KaramelBytes/erpgenie-cli/internal/table"
	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

// historyTokenBudget bounds how much prior conversation is sent to runtimes
// that take history.
const historyTokenBudget = 3000

// newRuntime is swapped out in tests.
var newRuntime = buildRuntime

func buildRuntime(cfg *cfgpkg.Global, providerFlag string) (ai.Runtime, string, error) {
	httpTimeout := 30 * time.Second
	retryMax := 1
	baseDelay := 500 * time.Millisecond
	maxDelay := 4 * time.Second
	providerName := ai.ProviderWebhook
	rc := ai.RuntimeConfig{}
	if cfg != nil {
		if cfg.HTTPTimeoutSec > 0 {
			httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		}
		if cfg.RetryMaxAttempts > 0 {
			retryMax = cfg.RetryMaxAttempts
		}
		if cfg.RetryBaseDelayMs > 0 {
			baseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		}
		if cfg.RetryMaxDelayMs > 0 {
			maxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		}
		if cfg.Provider != "" {
			providerName = cfg.Provider
		}
		rc.WebhookURL = cfg.WebhookURL
		rc.WebhookToken = cfg.WebhookToken
		rc.APIKey = cfg.OpenAIAPIKey
		rc.BaseURL = cfg.OpenAIBaseURL
		rc.Model = cfg.OpenAIModel
	}
	if p := strings.ToLower(strings.TrimSpace(providerFlag)); p != "" {
		providerName = p
	}
	if rc.WebhookURL == "" {
		rc.WebhookURL = cfgpkg.DefaultWebhookURL
	}
	rc.HTTPTimeout = httpTimeout
	rc.RetryMax = retryMax
	rc.BaseDelay = baseDelay
	rc.MaxDelay = maxDelay

	client, ok := ai.GetRuntime(providerName, rc)
	if !ok {
		return nil, providerName, fmt.Errorf("provider not supported: %s (use %s)", providerName, strings.Join(ai.Providers(), " or "))
	}
	return client, providerName, nil
}

func outputDir(cfg *cfgpkg.Global) string {
	if cfg != nil && cfg.ChartsDir != "" {
		return cfg.ChartsDir
	}
	return "erpgenie-output"
}

func chartSize(cfg *cfgpkg.Global) (int, int) {
	if cfg == nil {
		return 0, 0
	}
	return cfg.ChartWidth, cfg.ChartHeight
}

// renderChart builds and renders a chart of kind for t into a byte slice.
func renderChart(kind chart.Kind, t *table.Table, f chart.Format, width, height int) ([]byte, error) {
	spec, err := chart.Build(kind, t)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := chart.Render(spec, f, width, height, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// saveChart renders the chart for message index into dir and returns the
// file path.
func saveChart(dir string, index int, kind chart.Kind, t *table.Table, width, height int) (string, error) {
	data, err := renderChart(kind, t, chart.FormatPNG, width, height)
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("erpgenie_%s_%d.png", kind, index))
	if err := utils.SafeWriteFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// saveExport writes the table for message index into dir using the download
// file name.
func saveExport(dir string, index int, t *table.Table, f export.Format) (string, error) {
	var buf bytes.Buffer
	if err := export.Write(&buf, t, f); err != nil {
		return "", err
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("ensure output dir: %w", err)
	}
	path := filepath.Join(dir, export.FileName(index, f))
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// printClassification writes a one-line description of what can be charted.
func printClassification(w io.Writer, t *table.Table) {
	c := analysis.Classify(t)
	if c == nil {
		fmt.Fprintf(w, "%d rows, %d columns (no numeric columns)\n", t.Len(), len(t.Columns))
		return
	}
	fmt.Fprintf(w, "%d rows, %d columns; label: %s; numeric: %s\n",
		t.Len(), len(t.Columns), c.LabelColumn, strings.Join(c.NumericColumns, ", "))
}
