package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/erpgenie-cli/internal/config"
	"github.com/KaramelBytes/erpgenie-cli/internal/console"
	"github.com/KaramelBytes/erpgenie-cli/internal/export"
	"github.com/KaramelBytes/erpgenie-cli/internal/session"
	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

var (
	chatSessionID string
	chatProvider  string
)

var errQuit = errors.New("quit")

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the ERP assistant",
	Example: `  erpgenie chat
  erpgenie chat --session 3f1c...
  erpgenie chat --provider openai`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadedConfig()
		if err != nil {
			return err
		}
		rt, provider, err := newRuntime(c, chatProvider)
		if err != nil {
			return err
		}
		var s *session.Session
		if chatSessionID != "" {
			if s, err = openSession(chatSessionID); err != nil {
				return err
			}
		} else {
			s = session.New(c.SessionsDir)
		}

		histFile := ""
		if dir, err := cfgpkg.Dir(); err == nil {
			histFile = filepath.Join(dir, "chat_history")
		}
		rl, err := readline.NewEx(&readline.Config{
			Prompt:          "\033[32myou>\033[0m ",
			HistoryFile:     histFile,
			InterruptPrompt: "^C",
			EOFPrompt:       "/quit",
		})
		if err != nil {
			return fmt.Errorf("init terminal: %w", err)
		}
		defer rl.Close()

		loop := newChatLoop(rt, provider, s, rl.Stdout(), c)
		return loop.run(cmd.Context(), rl)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume a saved session by id")
	chatCmd.Flags().StringVar(&chatProvider, "provider", "", "chat runtime: webhook|openai (overrides config)")
}

// chatLoop owns one conversation: it sends user lines to the runtime,
// records replies in the session and answers slash commands.
type chatLoop struct {
	rt          ai.Runtime
	sess        *session.Session
	out         io.Writer
	delay       time.Duration
	outDir      string
	width       int
	height      int
	withHistory bool
	debug       bool
}

func newChatLoop(rt ai.Runtime, provider string, s *session.Session, out io.Writer, c *cfgpkg.Global) *chatLoop {
	l := &chatLoop{
		rt:   rt,
		sess: s,
		out:  out,
		// The webhook keeps its own memory keyed by the workflow.
		withHistory: provider != ai.ProviderWebhook,
		outDir:      outputDir(c),
		debug:       debug,
	}
	if c != nil {
		l.delay = time.Duration(c.StreamDelayMs) * time.Millisecond
		l.width, l.height = c.ChartWidth, c.ChartHeight
	}
	return l
}

func (l *chatLoop) run(ctx context.Context, rl *readline.Instance) error {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintf(l.out, "Session %s (%d messages)\n", l.sess.ID, len(l.sess.Messages))
	fmt.Fprintln(l.out, "Type a message to chat. Commands: /bar /line /pie /table /export /history /clear /debug /help /quit")
	fmt.Fprintln(l.out)
	last := l.sess.Messages[len(l.sess.Messages)-1]
	fmt.Fprintf(l.out, "genie> %s\n", last.Content)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := l.handle(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(l.out, "✗ %v\n", err)
		}
	}
}

// handle processes one input line.
func (l *chatLoop) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if strings.HasPrefix(line, "/") {
		return l.command(line)
	}
	return l.send(ctx, line)
}

func (l *chatLoop) send(ctx context.Context, text string) error {
	var history []ai.Message
	if l.withHistory {
		history = l.sess.History(historyTokenBudget)
	}
	l.sess.AddUser(text)

	var msg *session.Message
	resp, err := l.rt.Send(ctx, ai.ChatRequest{Text: text, History: history})
	if err != nil {
		log.Debug().Err(err).Msg("chat request failed")
		msg = l.sess.AddFailure(ai.ChatErrorText(err))
	} else {
		msg = l.sess.AddAssistant(resp.Text)
	}
	index := len(l.sess.Messages) - 1

	fmt.Fprint(l.out, "genie> ")
	if err := console.Stream(ctx, l.out, msg.Content, l.delay); err != nil {
		return err
	}
	fmt.Fprintln(l.out)
	if msg.HasTable() {
		fmt.Fprintf(l.out, "📊 Data detected! (message %d) Try /bar, /line, /pie, /table or /export.\n", index)
	}
	if err := l.sess.Save(); err != nil {
		fmt.Fprintf(l.out, "⚠ Warning: could not save session: %v\n", err)
	}
	return nil
}

func (l *chatLoop) command(line string) error {
	parts := strings.Fields(line)
	args := parts[1:]
	switch parts[0] {
	case "/quit", "/exit", "/q":
		return errQuit
	case "/help", "/h":
		l.printHelp()
	case "/history":
		printHistory(l.out, l.sess)
	case "/clear":
		l.sess.Clear()
		if err := l.sess.Save(); err != nil {
			return err
		}
		fmt.Fprintln(l.out, "✓ Conversation cleared.")
		fmt.Fprintf(l.out, "genie> %s\n", session.Greeting)
	case "/debug":
		l.debug = !l.debug
		setDebug(l.debug)
		state := "off"
		if l.debug {
			state = "on"
		}
		fmt.Fprintf(l.out, "Debug logging %s.\n", state)
	case "/bar", "/line", "/pie":
		return l.chart(chart.Kind(strings.TrimPrefix(parts[0], "/")), args)
	case "/table":
		index, t, err := l.tableArg(args)
		if err != nil {
			return err
		}
		fmt.Fprintf(l.out, "Message %d (%s):\n", index, t.Source)
		if err := console.RenderTable(l.out, t); err != nil {
			return err
		}
		printClassification(l.out, t)
	case "/export":
		return l.export(args)
	default:
		fmt.Fprintf(l.out, "Unknown command: %s (try /help)\n", parts[0])
	}
	return nil
}

func (l *chatLoop) chart(kind chart.Kind, args []string) error {
	index, t, err := l.tableArg(args)
	if err != nil {
		return err
	}
	path, err := saveChart(l.outDir, index, kind, t, l.width, l.height)
	if errors.Is(err, chart.ErrNotGraphable) {
		fmt.Fprintln(l.out, "⚠ "+chart.NotGraphableMessage(kind))
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "💾 Saved %s chart to %s\n", kind, path)
	return nil
}

func (l *chatLoop) export(args []string) error {
	format := export.FormatCSV
	var rest []string
	for _, a := range args {
		if _, err := strconv.Atoi(a); err == nil {
			rest = append(rest, a)
			continue
		}
		f, err := export.ParseFormat(a)
		if err != nil {
			return err
		}
		format = f
	}
	index, t, err := l.tableArg(rest)
	if err != nil {
		return err
	}
	path, err := saveExport(l.outDir, index, t, format)
	if err != nil {
		return err
	}
	fmt.Fprintf(l.out, "💾 Exported %d rows to %s\n", t.Len(), path)
	return nil
}

// tableArg resolves an optional message index to its table. Without an
// index the newest message with a table is used.
func (l *chatLoop) tableArg(args []string) (int, *table.Table, error) {
	index := l.sess.LastTableIndex()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, nil, fmt.Errorf("invalid message index %q", args[0])
		}
		index = n
	}
	if index < 0 {
		return 0, nil, errors.New("no table in this conversation yet")
	}
	t, err := l.sess.TableFor(index)
	if err != nil {
		return 0, nil, err
	}
	if t == nil {
		return 0, nil, fmt.Errorf("message %d has no table", index)
	}
	return index, t, nil
}

func (l *chatLoop) printHelp() {
	fmt.Fprint(l.out, `Commands:
  /bar [n]                 save a bar chart of message n's table
  /line [n]                save a line chart
  /pie [n]                 save a pie chart
  /table [n]               print the table
  /export [n] [csv|xlsx|pdf]  save the table as a file
  /history                 list messages with their indexes
  /clear                   start over
  /debug                   toggle debug logging
  /quit                    leave
n defaults to the newest message with a table.
`)
}

func printHistory(w io.Writer, s *session.Session) {
	for i, m := range s.Messages {
		marker := ""
		if m.HasTable() {
			marker = " 📊"
		}
		fmt.Fprintf(w, "[%d] %s%s: %s\n", i, m.Role, marker, m.Content)
	}
}
