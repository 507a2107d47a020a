// Package session holds per-conversation state: the current stage, the
// ticket data accumulated across turns, and the conversation history.
package session

import (
	"log"
	"time"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
)

// Pending-ticket map keys. Accumulated across turns during a create or edit
// flow and cleared whenever the session returns to main.
const (
	KeySerialNumber       = "serial_number"
	KeyDeviceType         = "device_type"
	KeyProblemDescription = "problem_description"
	KeyTicketID           = "ticket_id"
	KeyTicketInfo         = "ticket_info"
	KeyUpdateData         = "update_data"
)

// Message is one turn of the conversation. History is append-only.
type Message struct {
	Role string    `json:"role"` // "user" or "assistant"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Session is the mutable state of one conversation. It is not safe for
// concurrent use; callers that share sessions serialize turns through a
// Manager lock.
type Session struct {
	ID        string
	Stage     Stage
	PrevStage Stage

	PendingTicket      map[string]string
	PendingConfigItems []sm.ConfigItem

	history    []Message
	transcript *Transcript
}

func New(id string) *Session {
	return &Session{
		ID:            id,
		Stage:         StageMain,
		PendingTicket: make(map[string]string),
	}
}

// AttachTranscript mirrors every appended message to a per-session log file.
func (s *Session) AttachTranscript(t *Transcript) {
	s.transcript = t
}

// Transition moves the session to a new stage, remembering the old one.
// Only the Router calls this; handlers return labels instead.
func (s *Session) Transition(to Stage) {
	if to == s.Stage {
		return
	}
	s.PrevStage = s.Stage
	s.Stage = to
}

// ClearPending discards the in-progress ticket data and CI candidates.
func (s *Session) ClearPending() {
	s.PendingTicket = make(map[string]string)
	s.PendingConfigItems = nil
}

// ResetToMain returns the session to the main stage with no pending data.
func (s *Session) ResetToMain() {
	s.Transition(StageMain)
	s.ClearPending()
}

// SetPending stores a pending-ticket field, ignoring empty values so a later
// partial payload cannot blank out data collected earlier.
func (s *Session) SetPending(key, value string) {
	if value == "" {
		return
	}
	s.PendingTicket[key] = value
}

func (s *Session) AppendUser(text string)      { s.append("user", text) }
func (s *Session) AppendAssistant(text string) { s.append("assistant", text) }

func (s *Session) append(role, text string) {
	msg := Message{Role: role, Text: text, At: time.Now()}
	s.history = append(s.history, msg)
	if s.transcript != nil {
		if err := s.transcript.Append(msg); err != nil {
			log.Printf("session: transcript write for %s: %v", s.ID, err)
		}
	}
}

// History returns a copy of the conversation so far.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// Close ends the session, clearing state and finalizing the transcript.
func (s *Session) Close() {
	s.ClearPending()
	if s.transcript != nil {
		if err := s.transcript.Close(); err != nil {
			log.Printf("session: closing transcript for %s: %v", s.ID, err)
		}
		s.transcript = nil
	}
}
