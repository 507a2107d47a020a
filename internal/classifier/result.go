// Package classifier is the boundary to the LLM that interprets user
// messages. It performs no business logic: it sends the current stage's
// context plus the conversation and returns the model's intent decision.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LabelParseError is the reserved label of a degraded result. Routing code
// treats it like an unrecognized intent and keeps the session in place.
const LabelParseError = "parse-error"

// Turn is one prior message handed to the model as conversation history.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Result is the model's decision for one user message: either a free-text
// reply to show verbatim (Text) or a map of extracted fields (Fields),
// never both, plus the intent label.
type Result struct {
	Text   string
	Fields map[string]string
	Label  string
}

// HasFields reports whether the result carries a structured payload.
func (r Result) HasFields() bool { return r.Fields != nil }

// Classifier translates one user message into an intent Result.
type Classifier interface {
	Classify(ctx context.Context, stageContext string, history []Turn, question string) (Result, error)
}

// Degraded is the result substituted when the model call fails outright.
func Degraded() Result {
	return Result{
		Text:  "Xin lỗi, có lỗi xảy ra khi xử lý phản hồi. Vui lòng thử lại.",
		Label: LabelParseError,
	}
}

// envelope is the JSON contract with the model:
// {"response": <string or object>, "summary": "<label>"}.
type envelope struct {
	Response json.RawMessage `json:"response"`
	Summary  string          `json:"summary"`
}

// parseEnvelope decodes the model output. Output that is not the JSON
// envelope falls back to keyword scanning for the global intents, the same
// salvage the original assistant performed.
func parseEnvelope(content string) (Result, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in a fenced block despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil || env.Summary == "" {
		return salvage(content), nil
	}

	res := Result{Label: env.Summary}

	// The response is either a plain string or a field map.
	var text string
	if err := json.Unmarshal(env.Response, &text); err == nil {
		res.Text = text
		return res, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(env.Response, &raw); err != nil {
		return salvage(content), nil
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case nil:
			fields[k] = ""
		default:
			fields[k] = fmt.Sprint(val)
		}
	}
	res.Fields = fields
	return res, nil
}

// salvage turns non-envelope output into a usable result by scanning for
// the three intents that are recognizable without the model's help.
func salvage(content string) Result {
	lower := strings.ToLower(content)
	label := "không xác định"
	switch {
	case strings.Contains(lower, "tạo ticket") || strings.Contains(lower, "create ticket"):
		label = "tạo ticket"
	case strings.Contains(lower, "sửa ticket") || strings.Contains(lower, "edit ticket"):
		label = "sửa ticket"
	case strings.Contains(lower, "tạm biệt") || strings.Contains(lower, "bye") || strings.Contains(lower, "thoát"):
		label = "thoát"
	}
	return Result{Text: content, Label: label}
}
