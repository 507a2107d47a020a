package chat

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/stage"
)

type scriptedClassifier struct {
	results []classifier.Result
	i       int
}

func (s *scriptedClassifier) Classify(context.Context, string, []classifier.Turn, string) (classifier.Result, error) {
	if s.i >= len(s.results) {
		return classifier.Result{Text: "?", Label: "không xác định"}, nil
	}
	res := s.results[s.i]
	s.i++
	return res, nil
}

type stubGateway struct{}

func (stubGateway) FindConfigItemBySerial(context.Context, string) ([]sm.ConfigItem, error) {
	return nil, nil
}
func (stubGateway) CreateTicket(context.Context, string, string) (string, error) {
	return "TK400", nil
}
func (stubGateway) GetTicketByID(context.Context, string) (*sm.Ticket, error)    { return nil, nil }
func (stubGateway) GetTicketsBySerial(context.Context, string) ([]sm.Ticket, error) { return nil, nil }
func (stubGateway) UpdateTicket(context.Context, string, map[string]string) error   { return nil }

func TestDriverRunsToCompletion(t *testing.T) {
	cls := &scriptedClassifier{results: []classifier.Result{
		{Text: "Tôi sẽ giúp bạn tạo ticket mới.", Label: stage.LabelCreateTicket},
		{Fields: map[string]string{
			"serial_number":       "123",
			"device_type":         "máy in",
			"problem_description": "kẹt giấy",
		}, Label: stage.LabelCreateTicket},
		{Text: "Cảm ơn bạn đã xác nhận.", Label: stage.LabelCorrect},
	}}

	in := strings.NewReader("tạo ticket\n123, máy in kẹt giấy\nđúng\n")
	var out bytes.Buffer
	d := NewDriver(cls, stage.NewRouter(stubGateway{}), t.TempDir(), in, &out)

	require.NoError(t, d.Run(context.Background()))

	output := out.String()
	assert.Contains(t, output, "Xin chào")
	assert.Contains(t, output, "123")
	assert.Contains(t, output, "TK400")
}

func TestDriverExitWord(t *testing.T) {
	cls := &scriptedClassifier{}
	in := strings.NewReader("tạm biệt\n")
	var out bytes.Buffer
	d := NewDriver(cls, stage.NewRouter(stubGateway{}), t.TempDir(), in, &out)

	require.NoError(t, d.Run(context.Background()))

	assert.Zero(t, cls.i, "exit words must not reach the classifier")
	assert.Contains(t, out.String(), "Cảm ơn bạn")
}

func TestDriverStopsOnEOF(t *testing.T) {
	in := strings.NewReader("")
	var out bytes.Buffer
	d := NewDriver(&scriptedClassifier{}, stage.NewRouter(stubGateway{}), t.TempDir(), in, &out)

	require.NoError(t, d.Run(context.Background()))
	assert.Contains(t, out.String(), "Xin chào")
}
