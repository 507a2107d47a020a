package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groqStub(t *testing.T, content string, capture *chatRequest) *GroqClassifier {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)

	g := NewGroq("test-key", "")
	g.endpoint = srv.URL
	return g
}

func TestGroqClassifyStringResponse(t *testing.T) {
	var captured chatRequest
	g := groqStub(t, `{"response": "Bạn muốn tạo ticket hay sửa ticket?", "summary": "không xác định"}`, &captured)

	res, err := g.Classify(context.Background(), "system context",
		[]Turn{{Role: "user", Content: "xin chào"}, {Role: "assistant", Content: "chào bạn"}},
		"giúp tôi với")
	require.NoError(t, err)

	assert.Equal(t, "không xác định", res.Label)
	assert.Equal(t, "Bạn muốn tạo ticket hay sửa ticket?", res.Text)
	assert.False(t, res.HasFields())

	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "system context", captured.Messages[0].Content)
	assert.Equal(t, "giúp tôi với", captured.Messages[3].Content)
	assert.Equal(t, DefaultModel, captured.Model)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestGroqClassifyFieldResponse(t *testing.T) {
	g := groqStub(t, `{"response": {"serial_number": "123", "device_type": "máy in", "problem_description": null}, "summary": "tạo ticket"}`, nil)

	res, err := g.Classify(context.Background(), "ctx", nil, "123, máy in")
	require.NoError(t, err)

	assert.Equal(t, "tạo ticket", res.Label)
	require.True(t, res.HasFields())
	assert.Equal(t, "123", res.Fields["serial_number"])
	assert.Equal(t, "", res.Fields["problem_description"])
}

func TestGroqErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	g := NewGroq("test-key", "")
	g.endpoint = srv.URL

	_, err := g.Classify(context.Background(), "ctx", nil, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
