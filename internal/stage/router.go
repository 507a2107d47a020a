// Package stage implements the conversation state machine. Handlers decide
// what to say and return an intent label; the Router owns every stage
// transition through a single table. Handlers never mutate session.Stage.
package stage

import (
	"context"
	"log"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
)

// Gateway is the slice of the ticket system the handlers need.
type Gateway interface {
	FindConfigItemBySerial(ctx context.Context, serial string) ([]sm.ConfigItem, error)
	CreateTicket(ctx context.Context, serial, summary string) (string, error)
	GetTicketByID(ctx context.Context, id string) (*sm.Ticket, error)
	GetTicketsBySerial(ctx context.Context, serial string) ([]sm.Ticket, error)
	UpdateTicket(ctx context.Context, id string, fields map[string]string) error
}

// outcome is what a handler produces for one turn: the reply text and the
// label the Router resolves against the transition table.
type outcome struct {
	reply string
	label string
}

type handlerFunc func(ctx context.Context, sess *session.Session, res classifier.Result) outcome

// transitions maps (current stage, label) to the next stage. A pair absent
// from the table keeps the session where it is. Terminal and system-error
// labels are resolved before the table is consulted.
var transitions = map[session.Stage]map[string]session.Stage{
	session.StageMain: {
		LabelCreateTicket: session.StageCreate,
		LabelEditTicket:   session.StageEdit,
	},
	session.StageCreate: {
		LabelAwaitConfirm: session.StageConfirmation,
		LabelEditTicket:   session.StageEdit,
	},
	session.StageConfirmation: {
		LabelProcessing: session.StageCorrect,
		LabelUpdateInfo: session.StageUpdateConfirmation,
		LabelWrong:      session.StageCreate,
		LabelEditTicket: session.StageEdit,
	},
	session.StageUpdateConfirmation: {
		LabelAwaitConfirm: session.StageConfirmation,
		LabelUnknown:      session.StageConfirmation,
	},
	session.StageCorrect: {
		LabelConfirmDuplicate: session.StageSingleConfigItem,
		LabelClarifySerial:    session.StageMultipleConfigItem,
	},
	session.StageMultipleConfigItem: {
		LabelConfirmDuplicate: session.StageSingleConfigItem,
	},
	session.StageEdit: {
		LabelAwaitUpdate:  session.StageUpdatingTicket,
		LabelCreateTicket: session.StageCreate,
	},
	session.StageUpdatingTicket: {
		LabelAwaitEditConfirm: session.StageEditConfirmation,
	},
	session.StageEditConfirmation: {
		LabelAwaitUpdate: session.StageUpdatingTicket,
	},
}

// cascadeLabels mark transitions whose target handler must run in the same
// turn: the user confirmed and now expects the result, not another prompt.
var cascadeLabels = map[string]bool{
	LabelProcessing: true,
	LabelUpdateInfo: true,
}

// doneLabels end the conversation loop.
var doneLabels = map[string]bool{
	LabelExit:          true,
	LabelTicketCreated: true,
	LabelTicketUpdated: true,
	LabelCancelled:     true,
}

const (
	systemErrorReply = "Xin lỗi, hệ thống đang gặp sự cố. Mình đã đưa bạn về màn hình chính, bạn vui lòng thử lại sau nhé."
	maxCascadeDepth  = 3
)

// Router dispatches a classified turn to the current stage's handler and
// applies the resulting transition.
type Router struct {
	gw       Gateway
	handlers map[session.Stage]handlerFunc
}

func NewRouter(gw Gateway) *Router {
	r := &Router{gw: gw}
	r.handlers = map[session.Stage]handlerFunc{
		session.StageMain:               r.handleMain,
		session.StageCreate:             r.handleCreate,
		session.StageConfirmation:       r.handleConfirmation,
		session.StageUpdateConfirmation: r.handleUpdateConfirmation,
		session.StageCorrect:            r.handleCorrect,
		session.StageSingleConfigItem:   r.handleSingleConfigItem,
		session.StageMultipleConfigItem: r.handleMultipleConfigItem,
		session.StageEdit:               r.handleEdit,
		session.StageUpdatingTicket:     r.handleUpdatingTicket,
		session.StageEditConfirmation:   r.handleEditConfirmation,
	}
	return r
}

// Route processes one classified turn. It returns the reply for the user and
// whether the conversation has ended. A handler panic or an unroutable state
// resets the session to main instead of taking the conversation down.
func (r *Router) Route(ctx context.Context, sess *session.Session, res classifier.Result) (reply string, done bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("stage: panic in %s handler for session %s: %v", sess.Stage, sess.ID, p)
			sess.ResetToMain()
			reply, done = systemErrorReply, false
		}
	}()
	return r.route(ctx, sess, res, 0)
}

func (r *Router) route(ctx context.Context, sess *session.Session, res classifier.Result, depth int) (string, bool) {
	h, ok := r.handlers[sess.Stage]
	if !ok {
		log.Printf("stage: session %s in unknown stage %q", sess.ID, sess.Stage)
		sess.ResetToMain()
		return systemErrorReply, false
	}

	out := h(ctx, sess, res)

	if doneLabels[out.label] {
		sess.ClearPending()
		return out.reply, true
	}
	if out.label == labelSystemError {
		sess.ResetToMain()
		return out.reply, false
	}

	if next, ok := transitions[sess.Stage][out.label]; ok {
		sess.Transition(next)
	}

	if cascadeLabels[out.label] && depth < maxCascadeDepth {
		return r.route(ctx, sess, classifier.Result{
			Text:   res.Text,
			Fields: res.Fields,
			Label:  out.label,
		}, depth+1)
	}

	return out.reply, false
}
