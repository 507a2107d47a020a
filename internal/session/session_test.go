package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionRemembersPrevious(t *testing.T) {
	s := New("s1")
	assert.Equal(t, StageMain, s.Stage)

	s.Transition(StageCreate)
	assert.Equal(t, StageCreate, s.Stage)
	assert.Equal(t, StageMain, s.PrevStage)

	// Transitioning to the current stage is a no-op.
	s.Transition(StageCreate)
	assert.Equal(t, StageMain, s.PrevStage)
}

func TestSetPendingIgnoresEmptyValues(t *testing.T) {
	s := New("s1")
	s.SetPending(KeyDeviceType, "máy in")
	s.SetPending(KeyDeviceType, "")

	assert.Equal(t, "máy in", s.PendingTicket[KeyDeviceType])
}

func TestResetToMainClearsPending(t *testing.T) {
	s := New("s1")
	s.Transition(StageConfirmation)
	s.SetPending(KeySerialNumber, "123")

	s.ResetToMain()

	assert.Equal(t, StageMain, s.Stage)
	assert.Empty(t, s.PendingTicket)
	assert.Nil(t, s.PendingConfigItems)
}

func TestHistoryIsACopy(t *testing.T) {
	s := New("s1")
	s.AppendUser("xin chào")
	s.AppendAssistant("chào bạn")

	h := s.History()
	require.Len(t, h, 2)
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "assistant", h[1].Role)

	h[0].Text = "mutated"
	assert.Equal(t, "xin chào", s.History()[0].Text)
}

func TestStageValid(t *testing.T) {
	for _, st := range Stages {
		assert.True(t, st.Valid(), "stage %s", st)
	}
	assert.False(t, Stage("bogus").Valid())
}

func TestTranscriptLifecycle(t *testing.T) {
	dir := t.TempDir()

	tr, err := NewTranscript(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(tr.Path()))
	assert.Contains(t, filepath.Base(tr.Path()), "chat_")

	s := New("s1")
	s.AttachTranscript(tr)
	s.AppendUser("tạo ticket")
	s.AppendAssistant("Bạn cần cung cấp serial number.")
	s.Close()

	data, err := os.ReadFile(tr.Path())
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "Chat session started")
	assert.Contains(t, content, "Bạn: tạo ticket")
	assert.Contains(t, content, "AI: Bạn cần cung cấp serial number.")
	assert.Contains(t, content, "Cuộc trò chuyện đã kết thúc")
}

func TestManagerSerializesSameSession(t *testing.T) {
	m := NewManager()
	counter := 0

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			m.WithLock("a", func() error {
				counter++
				return nil
			})
		}
	}()
	for i := 0; i < 100; i++ {
		m.WithLock("a", func() error {
			counter++
			return nil
		})
	}
	<-done

	assert.Equal(t, 200, counter)
}

func TestManagerCleanup(t *testing.T) {
	m := NewManager()
	m.WithLock("stale", func() error { return nil })

	m.Cleanup(0)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.mutexes)
}
