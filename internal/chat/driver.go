// Package chat runs the conversation on a terminal: read a line, classify,
// route, print the reply, until the conversation ends.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/prompt"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/stage"
)

const greeting = "Xin chào! Mình là trợ lý hỗ trợ kỹ thuật. Mình có thể giúp bạn tạo ticket mới hoặc sửa ticket đã có. Bạn cần hỗ trợ gì ạ?"

type Driver struct {
	cls     classifier.Classifier
	router  *stage.Router
	dataDir string

	in  io.Reader
	out io.Writer
}

func NewDriver(cls classifier.Classifier, router *stage.Router, dataDir string, in io.Reader, out io.Writer) *Driver {
	return &Driver{cls: cls, router: router, dataDir: dataDir, in: in, out: out}
}

// Run drives one conversation to completion. It returns when the user exits,
// the conversation reaches a terminal outcome, or input ends.
func (d *Driver) Run(ctx context.Context) error {
	sess := session.New("repl")
	if t, err := session.NewTranscript(d.dataDir); err != nil {
		log.Printf("chat: transcript: %v", err)
	} else {
		sess.AttachTranscript(t)
	}
	defer sess.Close()

	d.say(sess, greeting)

	scanner := bufio.NewScanner(d.in)
	for {
		fmt.Fprint(d.out, "Bạn: ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		sess.AppendUser(line)

		reply, done := d.processTurn(ctx, sess, line)
		d.say(sess, reply)
		if done {
			break
		}
	}
	return scanner.Err()
}

func (d *Driver) processTurn(ctx context.Context, sess *session.Session, line string) (string, bool) {
	if stage.IsExitCommand(line) {
		return d.router.Route(ctx, sess, classifier.Result{Label: stage.LabelExit})
	}

	res, err := d.cls.Classify(ctx, prompt.ForStage(sess.Stage), toTurns(sess.History()), line)
	if err != nil {
		log.Printf("chat: classify: %v", err)
		res = classifier.Degraded()
	}

	return d.router.Route(ctx, sess, res)
}

func (d *Driver) say(sess *session.Session, text string) {
	sess.AppendAssistant(text)
	fmt.Fprintf(d.out, "AI: %s\n", text)
}

func toTurns(msgs []session.Message) []classifier.Turn {
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}
	turns := make([]classifier.Turn, len(msgs))
	for i, m := range msgs {
		turns[i] = classifier.Turn{Role: m.Role, Content: m.Text}
	}
	return turns
}
