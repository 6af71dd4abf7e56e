// Package notifications delivers escalation emails. The engine treats every
// send as fire-and-log: a delivery failure never fails an evaluation cycle.
package notifications

import (
	"context"
	"sync"
)

// Template keys for the dealer-advance escalation ladder.
const (
	TemplateDealerAdvanceInitialWarning = "dealer_advance_initial_warning"
	TemplateDealerAdvanceFinalWarning   = "dealer_advance_final_warning"
	TemplateDealerAdvanceEscalation     = "dealer_advance_escalation"
	TemplateCaseAutoCancelled           = "case_auto_cancelled"
)

// Message is one outbound escalation notification.
type Message struct {
	CaseID      int64
	Subject     string
	Recipients  []string
	TemplateKey string
	Body        string
}

// Sender delivers a message through the host system's transport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// MemorySender records messages instead of delivering them. Used in tests.
type MemorySender struct {
	mu   sync.Mutex
	sent []Message

	// Err, when set, is returned by every Send.
	Err error
}

// NewMemorySender creates a recording sender.
func NewMemorySender() *MemorySender {
	return &MemorySender{}
}

// Send records the message.
func (s *MemorySender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.sent = append(s.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages.
func (s *MemorySender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}
