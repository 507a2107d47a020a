package stage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
)

// fakeGateway scripts the ticket system for handler tests.
type fakeGateway struct {
	configItems []sm.ConfigItem
	findErr     error

	tickets       []sm.Ticket
	ticketsErr    error
	ticketByID    *sm.Ticket
	ticketByIDErr error

	createdID  string
	createErr  error
	createdFor []string // serials passed to CreateTicket

	updateErr     error
	updatedID     string
	updatedFields map[string]string
}

func (f *fakeGateway) FindConfigItemBySerial(_ context.Context, serial string) ([]sm.ConfigItem, error) {
	return f.configItems, f.findErr
}

func (f *fakeGateway) CreateTicket(_ context.Context, serial, summary string) (string, error) {
	f.createdFor = append(f.createdFor, serial)
	return f.createdID, f.createErr
}

func (f *fakeGateway) GetTicketByID(_ context.Context, id string) (*sm.Ticket, error) {
	return f.ticketByID, f.ticketByIDErr
}

func (f *fakeGateway) GetTicketsBySerial(_ context.Context, serial string) ([]sm.Ticket, error) {
	return f.tickets, f.ticketsErr
}

func (f *fakeGateway) UpdateTicket(_ context.Context, id string, fields map[string]string) error {
	f.updatedID = id
	f.updatedFields = fields
	return f.updateErr
}

func fieldsResult(label string, fields map[string]string) classifier.Result {
	return classifier.Result{Label: label, Fields: fields}
}

func textResult(label, text string) classifier.Result {
	return classifier.Result{Label: label, Text: text}
}

func TestRouteHappyPathCreate(t *testing.T) {
	gw := &fakeGateway{createdID: "TK100001"}
	r := NewRouter(gw)
	sess := session.New("s1")
	ctx := context.Background()

	reply, done := r.Route(ctx, sess, textResult(LabelCreateTicket, "Tôi sẽ giúp bạn tạo ticket mới."))
	require.False(t, done)
	assert.Equal(t, session.StageCreate, sess.Stage)
	assert.Contains(t, reply, "tạo ticket")

	reply, done = r.Route(ctx, sess, fieldsResult(LabelCreateTicket, map[string]string{
		"serial_number":       "48917912",
		"device_type":         "máy in",
		"problem_description": "máy in hỏng",
	}))
	require.False(t, done)
	assert.Equal(t, session.StageConfirmation, sess.Stage)
	assert.Contains(t, reply, "48917912")
	assert.Contains(t, reply, "máy in")

	// Confirming cascades through correct in the same turn.
	reply, done = r.Route(ctx, sess, textResult(LabelCorrect, "Cảm ơn bạn đã xác nhận."))
	require.True(t, done)
	assert.Contains(t, reply, "TK100001")
	assert.Equal(t, []string{"48917912"}, gw.createdFor)
	assert.Empty(t, sess.PendingTicket)
}

func TestRoutePartialDataStaysInCreate(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Transition(session.StageCreate)

	reply, done := r.Route(context.Background(), sess, fieldsResult(LabelCreateTicket, map[string]string{
		"serial_number":       "",
		"device_type":         "máy in",
		"problem_description": "máy in hỏng",
	}))

	require.False(t, done)
	assert.Equal(t, session.StageCreate, sess.Stage)
	assert.Contains(t, reply, "S/N hoặc ID thiết bị")
	// Provided fields were kept for the next turn.
	assert.Equal(t, "máy in", sess.PendingTicket[session.KeyDeviceType])
}

func TestRouteRepeatedWrongIsIdempotent(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Transition(session.StageConfirmation)
	sess.SetPending(session.KeySerialNumber, "123")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, done := r.Route(ctx, sess, textResult(LabelWrong, "Vui lòng cung cấp lại thông tin."))
		require.False(t, done)
		assert.Equal(t, session.StageCreate, sess.Stage)
		assert.Empty(t, sess.PendingTicket)
	}
}

func TestRouteExitFromEveryStage(t *testing.T) {
	for _, st := range session.Stages {
		t.Run(string(st), func(t *testing.T) {
			r := NewRouter(&fakeGateway{})
			sess := session.New("s1")
			sess.Transition(st)
			sess.SetPending(session.KeySerialNumber, "123")

			_, done := r.Route(context.Background(), sess, textResult(LabelExit, "Chào tạm biệt bạn."))

			require.True(t, done)
			assert.Empty(t, sess.PendingTicket)
		})
	}
}

// Every stage/label pair must route somewhere sane: a valid stage afterwards
// and never a panic.
func TestRouteNoStageLeftUndefined(t *testing.T) {
	labels := []string{
		LabelCreateTicket, LabelEditTicket, LabelExit, LabelUnknown,
		LabelCorrect, LabelWrong, LabelUpdateInfo, LabelCheckSerial,
		LabelCreate, LabelNoCreate, classifier.LabelParseError, "gibberish",
	}

	for _, st := range session.Stages {
		for _, label := range labels {
			gw := &fakeGateway{createdID: "TK1", ticketByID: &sm.Ticket{TicketID: "TK1"}}
			r := NewRouter(gw)
			sess := session.New("s1")
			sess.Transition(st)
			sess.SetPending(session.KeySerialNumber, "123")
			sess.SetPending(session.KeyDeviceType, "máy in")
			sess.SetPending(session.KeyProblemDescription, "hỏng")
			sess.SetPending(session.KeyTicketID, "TK1")
			sess.PendingTicket[session.KeyUpdateData] = `{"summary":"x"}`

			reply, _ := r.Route(context.Background(), sess, textResult(label, "text"))

			assert.True(t, sess.Stage.Valid(), "stage %s label %q left session in %q", st, label, sess.Stage)
			assert.NotEmpty(t, reply, "stage %s label %q produced an empty reply", st, label)
		}
	}
}

func TestRouteUnknownStageResetsToMain(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Stage = session.Stage("bogus")

	reply, done := r.Route(context.Background(), sess, textResult(LabelUnknown, ""))

	require.False(t, done)
	assert.Equal(t, session.StageMain, sess.Stage)
	assert.Contains(t, reply, "Xin lỗi")
}

func TestConfirmWithEmptyPendingResetsToMain(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Transition(session.StageConfirmation)

	_, done := r.Route(context.Background(), sess, textResult(LabelCorrect, "đúng"))

	require.False(t, done)
	assert.Equal(t, session.StageMain, sess.Stage)
}

func TestGatewayFailureResetsToMain(t *testing.T) {
	gw := &fakeGateway{findErr: errors.New("connection refused")}
	r := NewRouter(gw)
	sess := session.New("s1")
	sess.Transition(session.StageConfirmation)
	sess.SetPending(session.KeySerialNumber, "123")
	sess.SetPending(session.KeyDeviceType, "máy in")
	sess.SetPending(session.KeyProblemDescription, "hỏng")

	reply, done := r.Route(context.Background(), sess, textResult(LabelCorrect, "đúng"))

	require.False(t, done)
	assert.Equal(t, session.StageMain, sess.Stage)
	assert.Empty(t, sess.PendingTicket)
	assert.Contains(t, reply, "sự cố")
}

func TestCorrectBranchesOnConfigItems(t *testing.T) {
	pending := func(sess *session.Session) {
		sess.SetPending(session.KeySerialNumber, "48917912")
		sess.SetPending(session.KeyDeviceType, "máy in")
		sess.SetPending(session.KeyProblemDescription, "kẹt giấy")
	}
	confirm := textResult(LabelCorrect, "đúng")

	t.Run("no matching device creates directly", func(t *testing.T) {
		gw := &fakeGateway{createdID: "TK200"}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageConfirmation)
		pending(sess)

		reply, done := r.Route(context.Background(), sess, confirm)

		require.True(t, done)
		assert.Contains(t, reply, "TK200")
		assert.Len(t, gw.createdFor, 1)
	})

	t.Run("one device with no open ticket creates directly", func(t *testing.T) {
		gw := &fakeGateway{
			createdID:   "TK201",
			configItems: []sm.ConfigItem{{ID: "CI1", SerialNumber: "48917912"}},
			tickets:     []sm.Ticket{{TicketID: "TK1", Status: "Resolved"}},
		}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageConfirmation)
		pending(sess)

		reply, done := r.Route(context.Background(), sess, confirm)

		require.True(t, done)
		assert.Contains(t, reply, "TK201")
	})

	t.Run("open ticket warns before duplicating", func(t *testing.T) {
		gw := &fakeGateway{
			createdID:   "TK202",
			configItems: []sm.ConfigItem{{ID: "CI1", SerialNumber: "48917912"}},
			tickets:     []sm.Ticket{{TicketID: "TK90", Summary: "máy in kẹt giấy", Status: "In Progress"}},
		}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageConfirmation)
		pending(sess)

		reply, done := r.Route(context.Background(), sess, confirm)

		require.False(t, done)
		assert.Equal(t, session.StageSingleConfigItem, sess.Stage)
		assert.Contains(t, reply, "TK90")
		assert.Empty(t, gw.createdFor, "must not create before the user decides")

		// User declines.
		reply, done = r.Route(context.Background(), sess, textResult(LabelNoCreate, "không tạo"))
		require.True(t, done)
		assert.Empty(t, gw.createdFor)
	})

	t.Run("several devices ask for the exact serial", func(t *testing.T) {
		items := []sm.ConfigItem{
			{ID: "CI1", Name: "Máy in tầng 1", SerialNumber: "48917912", Location: "HN"},
			{ID: "CI2", Name: "Máy in tầng 2", SerialNumber: "48917913", Location: "HN"},
			{ID: "CI3", Name: "Máy in tầng 3", SerialNumber: "48917914", Location: "HCM"},
		}
		gw := &fakeGateway{createdID: "TK203", configItems: items}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageConfirmation)
		pending(sess)

		reply, done := r.Route(context.Background(), sess, confirm)

		require.False(t, done)
		assert.Equal(t, session.StageMultipleConfigItem, sess.Stage)
		assert.Contains(t, reply, "48917913")

		// Picking a serial that matches resolves to creation.
		reply, done = r.Route(context.Background(), sess,
			fieldsResult(LabelCheckSerial, map[string]string{"serial_number": "48917913"}))
		require.True(t, done)
		assert.Contains(t, reply, "TK203")
		assert.Equal(t, []string{"48917913"}, gw.createdFor)
	})

	t.Run("unmatched serial re-prompts", func(t *testing.T) {
		gw := &fakeGateway{configItems: []sm.ConfigItem{
			{ID: "CI1", SerialNumber: "1"}, {ID: "CI2", SerialNumber: "2"},
		}}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageMultipleConfigItem)
		pending(sess)
		sess.PendingConfigItems = gw.configItems

		reply, done := r.Route(context.Background(), sess,
			fieldsResult(LabelCheckSerial, map[string]string{"serial_number": "999"}))

		require.False(t, done)
		assert.Equal(t, session.StageMultipleConfigItem, sess.Stage)
		assert.Contains(t, reply, "999")
	})
}

func TestCorrectCapsListedDevices(t *testing.T) {
	var items []sm.ConfigItem
	for i := 0; i < 8; i++ {
		items = append(items, sm.ConfigItem{
			ID:           "CI" + string(rune('1'+i)),
			Name:         "Máy in",
			SerialNumber: "S" + string(rune('1'+i)),
		})
	}
	gw := &fakeGateway{configItems: items}
	r := NewRouter(gw)
	sess := session.New("s1")
	sess.Transition(session.StageConfirmation)
	sess.SetPending(session.KeySerialNumber, "S")
	sess.SetPending(session.KeyDeviceType, "máy in")
	sess.SetPending(session.KeyProblemDescription, "hỏng")

	reply, _ := r.Route(context.Background(), sess, textResult(LabelCorrect, "đúng"))

	assert.Equal(t, maxListedItems, strings.Count(reply, "S/N:"))
	assert.Contains(t, reply, "3 thiết bị khác")
}

func TestUpdateInfoCascadesBackToConfirmation(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Transition(session.StageConfirmation)
	sess.SetPending(session.KeySerialNumber, "123")
	sess.SetPending(session.KeyDeviceType, "máy in")
	sess.SetPending(session.KeyProblemDescription, "hỏng")

	reply, done := r.Route(context.Background(), sess,
		fieldsResult(LabelUpdateInfo, map[string]string{"device_type": "máy in HP"}))

	require.False(t, done)
	assert.Equal(t, session.StageConfirmation, sess.Stage)
	assert.Equal(t, "máy in HP", sess.PendingTicket[session.KeyDeviceType])
	assert.Contains(t, reply, "máy in HP")
	assert.Contains(t, reply, "123")
}

func TestEditFlow(t *testing.T) {
	t.Run("full update", func(t *testing.T) {
		gw := &fakeGateway{ticketByID: &sm.Ticket{
			TicketID: "TK555", Summary: "máy in hỏng", Status: "Open",
		}}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageEdit)
		ctx := context.Background()

		reply, done := r.Route(ctx, sess,
			fieldsResult(LabelEditTicket, map[string]string{"ticket_id": "TK555"}))
		require.False(t, done)
		assert.Equal(t, session.StageUpdatingTicket, sess.Stage)
		assert.Contains(t, reply, "TK555")
		assert.Contains(t, reply, "máy in hỏng")

		reply, done = r.Route(ctx, sess,
			fieldsResult(LabelUpdateInfo, map[string]string{"description": "máy in không in được màu"}))
		require.False(t, done)
		assert.Equal(t, session.StageEditConfirmation, sess.Stage)
		assert.Contains(t, reply, "máy in không in được màu")

		reply, done = r.Route(ctx, sess, textResult(LabelCorrect, "đúng"))
		require.True(t, done)
		assert.Contains(t, reply, "TK555")
		assert.Equal(t, "TK555", gw.updatedID)
		assert.Equal(t, map[string]string{"description": "máy in không in được màu"}, gw.updatedFields)
	})

	t.Run("unknown ticket ends the conversation", func(t *testing.T) {
		gw := &fakeGateway{ticketByID: nil}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageEdit)

		reply, done := r.Route(context.Background(), sess,
			fieldsResult(LabelEditTicket, map[string]string{"ticket_id": "TK999"}))

		require.True(t, done)
		assert.Contains(t, reply, "TK999")
	})

	t.Run("missing ticket id re-prompts", func(t *testing.T) {
		r := NewRouter(&fakeGateway{})
		sess := session.New("s1")
		sess.Transition(session.StageEdit)

		_, done := r.Route(context.Background(), sess, textResult(LabelEditTicket, "Để sửa ticket, bạn cần cung cấp Ticket ID."))

		require.False(t, done)
		assert.Equal(t, session.StageEdit, sess.Stage)
	})

	t.Run("rejected confirmation returns to updating", func(t *testing.T) {
		gw := &fakeGateway{}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageEditConfirmation)
		sess.SetPending(session.KeyTicketID, "TK555")
		sess.PendingTicket[session.KeyTicketInfo] = "Thông tin ticket hiện tại:\n  • Ticket ID: TK555"
		sess.PendingTicket[session.KeyUpdateData] = `{"summary":"x"}`

		reply, done := r.Route(context.Background(), sess, textResult(LabelWrong, "sai"))

		require.False(t, done)
		assert.Equal(t, session.StageUpdatingTicket, sess.Stage)
		assert.NotContains(t, sess.PendingTicket, session.KeyUpdateData)
		assert.Contains(t, reply, "TK555")
	})

	t.Run("update failure keeps the ticket for retry", func(t *testing.T) {
		gw := &fakeGateway{
			ticketByID: &sm.Ticket{TicketID: "TK555", Status: "Open"},
			updateErr:  errors.New("boom"),
		}
		r := NewRouter(gw)
		sess := session.New("s1")
		sess.Transition(session.StageEditConfirmation)
		sess.SetPending(session.KeyTicketID, "TK555")
		sess.PendingTicket[session.KeyUpdateData] = `{"summary":"x"}`

		reply, done := r.Route(context.Background(), sess, textResult(LabelCorrect, "đúng"))

		require.False(t, done)
		assert.Equal(t, session.StageUpdatingTicket, sess.Stage)
		assert.Equal(t, "TK555", sess.PendingTicket[session.KeyTicketID])
		assert.Contains(t, reply, "TK555")
	})
}

func TestParseErrorKeepsStage(t *testing.T) {
	r := NewRouter(&fakeGateway{})
	sess := session.New("s1")
	sess.Transition(session.StageCreate)
	sess.SetPending(session.KeyDeviceType, "máy in")

	reply, done := r.Route(context.Background(), sess, classifier.Degraded())

	require.False(t, done)
	assert.Equal(t, session.StageCreate, sess.Stage)
	assert.Contains(t, reply, "thử lại")
	assert.Equal(t, "máy in", sess.PendingTicket[session.KeyDeviceType])
}
