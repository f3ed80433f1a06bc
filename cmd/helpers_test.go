package cmd

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/erpgenie-cli/internal/config"
)

func TestBuildRuntimeDefaultsToWebhook(t *testing.T) {
	rt, provider, err := buildRuntime(nil, "")
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if provider != ai.ProviderWebhook {
		t.Fatalf("provider = %q", provider)
	}
	wc, ok := rt.(*ai.WebhookClient)
	if !ok {
		t.Fatalf("runtime is %T, want *ai.WebhookClient", rt)
	}
	if wc.URL() != cfgpkg.DefaultWebhookURL {
		t.Fatalf("url = %q", wc.URL())
	}
}

func TestBuildRuntimeFlagOverridesConfig(t *testing.T) {
	c := &cfgpkg.Global{Provider: "webhook", OpenAIModel: "gpt-4o-mini"}
	_, provider, err := buildRuntime(c, " OpenAI ")
	if err != nil {
		t.Fatalf("buildRuntime: %v", err)
	}
	if provider != ai.ProviderOpenAI {
		t.Fatalf("provider = %q", provider)
	}
}

func TestBuildRuntimeUnknownProvider(t *testing.T) {
	_, _, err := buildRuntime(&cfgpkg.Global{Provider: "ollama"}, "")
	if err == nil || !strings.Contains(err.Error(), "provider not supported: ollama") {
		t.Fatalf("expected unsupported provider error, got %v", err)
	}
}

func TestOutputDirFallback(t *testing.T) {
	if got := outputDir(nil); got != "erpgenie-output" {
		t.Fatalf("outputDir(nil) = %q", got)
	}
	if got := outputDir(&cfgpkg.Global{ChartsDir: "/tmp/charts"}); got != "/tmp/charts" {
		t.Fatalf("outputDir = %q", got)
	}
}
