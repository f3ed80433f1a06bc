// Package console holds terminal helpers for the chat loop.
package console

import (
	"context"
	"io"
	"strings"
	"time"
)

// Stream writes text word by word, each word followed by a space, pausing
// delay between words. Cancelling ctx skips the remaining pauses but still
// writes the whole text.
func Stream(ctx context.Context, w io.Writer, text string, delay time.Duration) error {
	words := strings.Split(text, " ")
	var timer *time.Timer
	if delay > 0 {
		timer = time.NewTimer(delay)
		defer timer.Stop()
	}
	for i, word := range words {
		if _, err := io.WriteString(w, word+" "); err != nil {
			return err
		}
		if timer == nil || i == len(words)-1 || ctx.Err() != nil {
			continue
		}
		if i > 0 {
			timer.Reset(delay)
		}
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
	return nil
}
