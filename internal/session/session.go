// Package session persists chat history and the tables parsed from it.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/KaramelBytes/erpgenie-cli/internal/ai"
	"github.com/KaramelBytes/erpgenie-cli/internal/parser"
	"github.com/KaramelBytes/erpgenie-cli/internal/table"
	"github.com/KaramelBytes/erpgenie-cli/internal/utils"
)

const fileExt = ".json"

// Greeting is the assistant message every session starts with.
const Greeting = "Hello! I am ERPGenie. How can I assist you today?"

// ErrMessageNotFound is returned for an index that does not name an
// assistant message.
var ErrMessageNotFound = errors.New("message not found")

// Session is a chat conversation persisted as <dir>/<id>.json.
type Session struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`

	// Not serialized: directory holding the session file
	dir string `json:"-"`
}

// Summary describes a stored session for listings.
type Summary struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  int       `json:"messages"`
	Tables    int       `json:"tables"`
	Preview   string    `json:"preview"`
}

// New constructs an in-memory session seeded with the greeting. Call Save()
// to persist.
func New(dir string) *Session {
	now := time.Now()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		dir:       dir,
	}
	s.Clear()
	return s
}

// Load reads <dir>/<id>.json.
func Load(dir, id string) (*Session, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, id+fileExt)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	// Cached tables keep numbers as written.
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.dir = dir
	return &s, nil
}

// List returns the sessions in dir, most recently updated first. A missing
// directory yields an empty list.
func List(dir string) ([]Summary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		s, err := Load(dir, strings.TrimSuffix(e.Name(), fileExt))
		if err != nil {
			log.Debug().Err(err).Str("file", e.Name()).Msg("skipping unreadable session")
			continue
		}
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Dir returns the on-disk session directory.
func (s *Session) Dir() string { return s.dir }

// Path returns the session file path.
func (s *Session) Path() string { return filepath.Join(s.dir, s.ID+fileExt) }

// Save writes the session using atomic write.
func (s *Session) Save() error {
	if s.dir == "" {
		return errors.New("session directory not set")
	}
	if err := utils.EnsureDir(s.dir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	log.Debug().Str("session", s.ID).Int("messages", len(s.Messages)).Msg("saving session")
	return utils.SafeWriteFile(s.Path(), data)
}

// Clear drops all history and the parsed-table cache, leaving the greeting.
func (s *Session) Clear() {
	s.Messages = []*Message{newMessage(RoleAssistant, Greeting)}
	s.UpdatedAt = time.Now()
}

// AddUser appends a user message.
func (s *Session) AddUser(text string) *Message {
	m := newMessage(RoleUser, text)
	s.append(m)
	return m
}

// AddAssistant appends an assistant reply and runs table extraction on it
// once; the result is cached on the message.
func (s *Session) AddAssistant(text string) *Message {
	m := newMessage(RoleAssistant, text)
	m.Table = parser.Extract(text)
	m.Parsed = true
	s.append(m)
	return m
}

// AddFailure appends an assistant message describing a transport error.
// Failures are never scanned for tables.
func (s *Session) AddFailure(text string) *Message {
	m := newMessage(RoleAssistant, text)
	m.Parsed = true
	m.Failed = true
	s.append(m)
	return m
}

// Message returns the message at index.
func (s *Session) Message(index int) (*Message, error) {
	if index < 0 || index >= len(s.Messages) {
		return nil, fmt.Errorf("message %d: %w", index, ErrMessageNotFound)
	}
	return s.Messages[index], nil
}

// TableFor returns the table parsed from the assistant message at index,
// extracting and caching it on first use. A message without a table yields
// (nil, nil).
func (s *Session) TableFor(index int) (*table.Table, error) {
	m, err := s.Message(index)
	if err != nil {
		return nil, err
	}
	if m.Role != RoleAssistant {
		return nil, fmt.Errorf("message %d is not an assistant reply: %w", index, ErrMessageNotFound)
	}
	if !m.Parsed {
		m.Table = parser.Extract(m.Content)
		m.Parsed = true
	}
	if !m.HasTable() {
		return nil, nil
	}
	return m.Table, nil
}

// LastTableIndex returns the index of the newest message with a table, or -1.
func (s *Session) LastTableIndex() int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if t, err := s.TableFor(i); err == nil && t != nil {
			return i
		}
	}
	return -1
}

// History returns prior turns for runtimes without server-side memory,
// newest last, keeping as many recent turns as fit in maxTokens. The
// greeting and failures are left out. maxTokens <= 0 means no limit.
func (s *Session) History(maxTokens int) []ai.Message {
	var out []ai.Message
	budget := maxTokens
	for i := len(s.Messages) - 1; i >= 1; i-- {
		m := s.Messages[i]
		if m.Failed {
			continue
		}
		content := m.Content
		if maxTokens > 0 {
			n := utils.CountTokens(content)
			if n > budget {
				if len(out) == 0 {
					// Always keep the newest turn, clipped to the budget.
					content = utils.TruncateToTokenLimit(content, budget)
					out = append(out, ai.Message{Role: m.Role, Content: content})
				}
				break
			}
			budget -= n
		}
		out = append(out, ai.Message{Role: m.Role, Content: content})
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Summary condenses the session for listings.
func (s *Session) Summary() Summary {
	sum := Summary{ID: s.ID, UpdatedAt: s.UpdatedAt, Messages: len(s.Messages)}
	for _, m := range s.Messages {
		if m.HasTable() {
			sum.Tables++
		}
		if m.Role == RoleUser && sum.Preview == "" {
			sum.Preview = preview(m.Content, 60)
		}
	}
	return sum
}

func (s *Session) append(m *Message) {
	s.Messages = append(s.Messages, m)
	s.UpdatedAt = time.Now()
}

func newMessage(role, content string) *Message {
	return &Message{ID: uuid.NewString(), Role: role, Content: content, CreatedAt: time.Now()}
}

// validateID rejects ids that could escape the session directory.
func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
