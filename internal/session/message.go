package session

import (
	"time"

	"github.com/KaramelBytes/erpgenie-cli/internal/table"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn with its cached table, if any.
type Message struct {
	ID        string       `json:"id"`
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	Table     *table.Table `json:"table,omitempty"`
	// Parsed reports whether table extraction already ran for this message.
	Parsed bool `json:"parsed"`
	// Failed marks an assistant message that reports a transport error.
	Failed bool `json:"failed,omitempty"`
}

// HasTable reports whether extraction found a table in the message.
func (m *Message) HasTable() bool {
	return m != nil && m.Table != nil && !m.Table.Empty()
}
