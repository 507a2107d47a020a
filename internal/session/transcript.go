package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Transcript writes the conversation to a plain-text log file, one file per
// session, so the exchange survives the process. Nothing else reads the
// format back.
type Transcript struct {
	path string
	file *os.File
}

// NewTranscript creates chat_<timestamp>.txt under dir and writes the
// session header.
func NewTranscript(dir string) (*Transcript, error) {
	name := fmt.Sprintf("chat_%s.txt", time.Now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating transcript: %w", err)
	}

	header := strings.Repeat("=", 40)
	fmt.Fprintf(f, "%s\nChat session started: %s\n%s\n\n",
		header, time.Now().Format("2006-01-02 15:04:05"), header)

	return &Transcript{path: path, file: f}, nil
}

func (t *Transcript) Path() string { return t.path }

func (t *Transcript) Append(msg Message) error {
	sender := "Bạn"
	if msg.Role == "assistant" {
		sender = "AI"
	}
	_, err := fmt.Fprintf(t.file, "[%s] %s: %s\n\n", msg.At.Format("15:04:05"), sender, msg.Text)
	return err
}

// Close writes the end-of-session marker and closes the file.
func (t *Transcript) Close() error {
	fmt.Fprintf(t.file, "\n=== Cuộc trò chuyện đã kết thúc tại %s ===\n",
		time.Now().Format("2006-01-02 15:04:05"))
	return t.file.Close()
}
