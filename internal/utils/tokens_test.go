package utils_test

import (
	"strings"
	"testing"

	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

func TestCountTokensForChatTurns(t *testing.T) {
	cases := []struct {
		name string
		turn string
		want int
	}{
		{"blank turn", "", 0},
		{"short reply", "ok", 1},
		{"table request", "show sales by month", 4},
		{"multibyte", strings.Repeat("é", 8), 2},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.turn); got != c.want {
			t.Errorf("%s: CountTokens(%q)=%d want %d", c.name, c.turn, got, c.want)
		}
	}
}

func TestTruncateToTokenLimitClipsNewestTurn(t *testing.T) {
	reply := strings.Repeat("| Jan | 10 |\n", 200)
	clipped := utils.TruncateToTokenLimit(reply, 50)
	if got := utils.CountTokens(clipped); got != 50 {
		t.Fatalf("clipped reply costs %d tokens, want 50", got)
	}
	if !strings.HasPrefix(reply, clipped) {
		t.Fatalf("clipping must keep the start of the reply")
	}
	if got := utils.TruncateToTokenLimit("thanks", 10); got != "thanks" {
		t.Fatalf("turn within budget changed: %q", got)
	}
	if got := utils.TruncateToTokenLimit(reply, 0); got != "" {
		t.Fatalf("zero budget should drop the turn, got %q", got)
	}
}
