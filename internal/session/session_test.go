package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeedsGreeting(t *testing.T) {
	s := New(t.TempDir())
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleAssistant, s.Messages[0].Role)
	assert.Equal(t, Greeting, s.Messages[0].Content)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, -1, s.LastTableIndex())
}

func TestAddAssistantCachesTable(t *testing.T) {
	s := New(t.TempDir())
	s.AddUser("sales please")
	m := s.AddAssistant("| A | B |\n|---|---|\n| x | 1 |\n| y | 2 |")
	assert.True(t, m.Parsed)
	require.True(t, m.HasTable())
	assert.Equal(t, "markdown", m.Table.Source)

	tb, err := s.TableFor(2)
	require.NoError(t, err)
	assert.Same(t, m.Table, tb)
	assert.Equal(t, 2, s.LastTableIndex())
}

func TestTableForErrors(t *testing.T) {
	s := New(t.TempDir())
	s.AddUser("| A | B |\n|---|---|\n| x | 1 |")
	_, err := s.TableFor(1)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = s.TableFor(9)
	assert.ErrorIs(t, err, ErrMessageNotFound)
	_, err = s.TableFor(-1)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	tb, err := s.TableFor(0)
	require.NoError(t, err)
	assert.Nil(t, tb)
}

func TestTableForExtractsLazily(t *testing.T) {
	s := New(t.TempDir())
	s.Messages = append(s.Messages, &Message{Role: RoleAssistant, Content: "Revenue: $500\nCost: $200"})
	tb, err := s.TableFor(1)
	require.NoError(t, err)
	require.NotNil(t, tb)
	assert.True(t, s.Messages[1].Parsed)
	assert.Equal(t, []string{"Category", "Value"}, tb.Columns)
}

func TestFailuresAreNotParsed(t *testing.T) {
	s := New(t.TempDir())
	m := s.AddFailure("Error: Could not connect to webhook. Is it running?")
	assert.True(t, m.Failed)
	assert.True(t, m.Parsed)
	assert.Nil(t, m.Table)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")
	s := New(dir)
	s.AddUser("show revenue")
	s.AddAssistant(`[{"Month":"Jan","Sales":100},{"Month":"Feb","Sales":120}]`)
	require.NoError(t, s.Save())
	assert.FileExists(t, s.Path())

	back, err := Load(dir, s.ID)
	require.NoError(t, err)
	require.Len(t, back.Messages, 3)
	tb, err := back.TableFor(2)
	require.NoError(t, err)
	require.NotNil(t, tb)
	assert.Equal(t, []string{"Month", "Sales"}, tb.Columns)
	assert.Equal(t, json.Number("120"), tb.Rows[1]["Sales"])
	assert.Equal(t, dir, back.Dir())
}

func TestLoadMissingAndInvalid(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(dir, "nope")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = Load(dir, "../etc/passwd")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))
	_, err = Load(dir, "bad")
	assert.Error(t, err)
}

func TestListOrdersByUpdate(t *testing.T) {
	dir := t.TempDir()
	older := New(dir)
	older.AddUser("first question")
	require.NoError(t, older.Save())
	time.Sleep(10 * time.Millisecond)
	newer := New(dir)
	newer.AddUser("second   question\nwith newline")
	newer.AddAssistant("Revenue: 1\nCost: 2")
	require.NoError(t, newer.Save())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("not json"), 0o644))

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, 1, list[0].Tables)
	assert.Equal(t, "second question with newline", list[0].Preview)
	assert.Equal(t, older.ID, list[1].ID)

	none, err := List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClearResetsToGreeting(t *testing.T) {
	s := New(t.TempDir())
	s.AddUser("hi")
	s.AddAssistant("Revenue: 1\nCost: 2")
	s.Clear()
	require.Len(t, s.Messages, 1)
	assert.Equal(t, Greeting, s.Messages[0].Content)
	assert.Equal(t, -1, s.LastTableIndex())
}

func TestHistoryBudget(t *testing.T) {
	s := New(t.TempDir())
	s.AddUser("one")
	s.AddAssistant("two")
	s.AddFailure("Error: boom")
	s.AddUser(strings.Repeat("x", 40))

	all := s.History(0)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, RoleAssistant, all[1].Role)

	recent := s.History(10)
	require.Len(t, recent, 1)
	assert.Equal(t, strings.Repeat("x", 40), recent[0].Content)

	clipped := s.History(5)
	require.Len(t, clipped, 1)
	assert.Len(t, clipped[0].Content, 20)
}
