package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/classifier"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/sm"
)

const maxListedItems = 5

// updatableFields are the ticket fields the edit flow accepts, with their
// Vietnamese display names.
var updatableFields = []struct{ key, name string }{
	{"summary", "Tiêu đề"},
	{"description", "Mô tả"},
	{"status", "Trạng thái"},
	{"priority", "Độ ưu tiên"},
	{"assignee", "Người xử lý"},
}

// replyOr prefers the classifier's own phrasing, falling back when the model
// returned a field payload instead of text.
func replyOr(res classifier.Result, fallback string) string {
	if strings.TrimSpace(res.Text) != "" {
		return res.Text
	}
	return fallback
}

func exitOutcome(res classifier.Result) outcome {
	return outcome{replyOr(res, "Cảm ơn bạn đã sử dụng dịch vụ. Hẹn gặp lại!"), LabelExit}
}

func (r *Router) handleMain(_ context.Context, _ *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelCreateTicket:
		return outcome{replyOr(res, "Tôi sẽ giúp bạn tạo ticket mới. Bạn cần cung cấp: S/N hoặc ID thiết bị, loại thiết bị và nội dung sự cố."), LabelCreateTicket}
	case LabelEditTicket:
		return outcome{replyOr(res, "Bạn muốn sửa nội dung ticket nào? Vui lòng cung cấp Ticket ID."), LabelEditTicket}
	case LabelExit:
		return exitOutcome(res)
	default:
		return outcome{replyOr(res, "Xin lỗi, mình chưa hiểu ý bạn. Bạn muốn tạo ticket hay sửa ticket?"), LabelUnknown}
	}
}

func (r *Router) handleCreate(_ context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelExit:
		return exitOutcome(res)
	case LabelEditTicket:
		return outcome{replyOr(res, "Đã chuyển sang chế độ sửa ticket. Vui lòng cung cấp Ticket ID."), LabelEditTicket}
	case LabelWrong:
		sess.ClearPending()
		return outcome{replyOr(res, "Vui lòng cung cấp lại thông tin: serial number, loại thiết bị và nội dung sự cố."), LabelWrong}
	}

	if res.HasFields() {
		sess.SetPending(session.KeySerialNumber, strings.TrimSpace(res.Fields[session.KeySerialNumber]))
		sess.SetPending(session.KeyDeviceType, strings.TrimSpace(res.Fields[session.KeyDeviceType]))
		sess.SetPending(session.KeyProblemDescription, strings.TrimSpace(res.Fields[session.KeyProblemDescription]))

		if ok, missing := ValidateTicketData(sess.PendingTicket); !ok {
			return outcome{formatMissingFields(missing), LabelCreateTicket}
		}
		return outcome{formatConfirmation(sess.PendingTicket), LabelAwaitConfirm}
	}

	return outcome{replyOr(res, "Bạn cần cung cấp serial number, loại thiết bị và nội dung sự cố để tạo ticket."), LabelCreateTicket}
}

func (r *Router) handleConfirmation(_ context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelCorrect:
		if ok, _ := ValidateTicketData(sess.PendingTicket); !ok {
			log.Printf("stage: session %s confirmed with incomplete pending ticket", sess.ID)
			return outcome{systemErrorReply, labelSystemError}
		}
		return outcome{"", LabelProcessing}
	case LabelWrong:
		sess.ClearPending()
		return outcome{replyOr(res, "Vui lòng cung cấp lại thông tin chính xác: serial number, loại thiết bị và nội dung sự cố."), LabelWrong}
	case LabelEditTicket:
		sess.ClearPending()
		return outcome{replyOr(res, "Đã chuyển sang chế độ sửa ticket. Vui lòng cung cấp Ticket ID."), LabelEditTicket}
	case LabelExit:
		return exitOutcome(res)
	}

	if res.Label == LabelUpdateInfo || res.HasFields() {
		return outcome{"", LabelUpdateInfo}
	}

	return outcome{replyOr(res, "Thông tin trên có chính xác không ạ? Vui lòng trả lời 'đúng' hoặc 'sai'."), LabelUnknown}
}

// handleUpdateConfirmation merges corrected fields into the pending ticket
// and sends the user back to confirmation with the refreshed summary.
func (r *Router) handleUpdateConfirmation(_ context.Context, sess *session.Session, res classifier.Result) outcome {
	if res.Label == LabelExit {
		return exitOutcome(res)
	}

	if res.HasFields() {
		sess.SetPending(session.KeySerialNumber, strings.TrimSpace(res.Fields[session.KeySerialNumber]))
		sess.SetPending(session.KeyDeviceType, strings.TrimSpace(res.Fields[session.KeyDeviceType]))
		sess.SetPending(session.KeyProblemDescription, strings.TrimSpace(res.Fields[session.KeyProblemDescription]))
	}

	if ok, missing := ValidateTicketData(sess.PendingTicket); !ok {
		return outcome{formatMissingFields(missing), LabelUnknown}
	}
	return outcome{formatConfirmation(sess.PendingTicket), LabelAwaitConfirm}
}

// handleCorrect runs after the user confirms the ticket data: resolve the
// serial against SM, branch on how many devices match and whether any of
// them already has an open ticket.
func (r *Router) handleCorrect(ctx context.Context, sess *session.Session, res classifier.Result) outcome {
	if res.Label == LabelExit {
		return exitOutcome(res)
	}

	serial := sess.PendingTicket[session.KeySerialNumber]
	if serial == "" {
		log.Printf("stage: session %s reached processing without a serial", sess.ID)
		return outcome{systemErrorReply, labelSystemError}
	}

	items, err := r.gw.FindConfigItemBySerial(ctx, serial)
	if err != nil {
		log.Printf("stage: session %s: CI lookup for %q: %v", sess.ID, serial, err)
		return outcome{systemErrorReply, labelSystemError}
	}

	switch {
	case len(items) == 0:
		// Unregistered device: create the ticket anyway.
		return r.createTicket(ctx, sess)
	case len(items) == 1:
		sess.PendingConfigItems = items
		return r.checkOpenTickets(ctx, sess, serial)
	default:
		sess.PendingConfigItems = items
		return outcome{formatConfigItemChoices(items), LabelClarifySerial}
	}
}

// checkOpenTickets warns before creating a duplicate ticket for a device
// that already has one in progress.
func (r *Router) checkOpenTickets(ctx context.Context, sess *session.Session, serial string) outcome {
	tickets, err := r.gw.GetTicketsBySerial(ctx, serial)
	if err != nil {
		log.Printf("stage: session %s: ticket lookup for %q: %v", sess.ID, serial, err)
		return outcome{systemErrorReply, labelSystemError}
	}

	var open []sm.Ticket
	for _, t := range tickets {
		if t.Active() {
			open = append(open, t)
		}
	}
	if len(open) == 0 {
		return r.createTicket(ctx, sess)
	}

	var b strings.Builder
	b.WriteString("Thiết bị này đã có ticket đang xử lý:\n")
	for i, t := range open {
		if i == maxListedItems {
			break
		}
		fmt.Fprintf(&b, "  • %s — %s (%s)\n", t.TicketID, t.Summary, t.Status)
	}
	b.WriteString("Bạn có muốn tạo thêm ticket mới không? Vui lòng trả lời 'tạo' hoặc 'không tạo'.")
	return outcome{b.String(), LabelConfirmDuplicate}
}

func (r *Router) createTicket(ctx context.Context, sess *session.Session) outcome {
	serial := sess.PendingTicket[session.KeySerialNumber]
	summary := ticketSummary(sess.PendingTicket)

	id, err := r.gw.CreateTicket(ctx, serial, summary)
	if err != nil {
		log.Printf("stage: session %s: creating ticket for %q: %v", sess.ID, serial, err)
		return outcome{systemErrorReply, labelSystemError}
	}

	reply := fmt.Sprintf("Ticket %s đã được tạo thành công. Cảm ơn bạn đã sử dụng dịch vụ, hẹn gặp lại!", id)
	return outcome{reply, LabelTicketCreated}
}

func (r *Router) handleSingleConfigItem(ctx context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelCreate, LabelCorrect:
		return r.createTicket(ctx, sess)
	case LabelNoCreate, LabelWrong:
		return outcome{replyOr(res, "Đã hủy yêu cầu tạo ticket. Cảm ơn bạn, hẹn gặp lại!"), LabelCancelled}
	case LabelExit:
		return exitOutcome(res)
	default:
		return outcome{replyOr(res, "Bạn có muốn tạo ticket mới cho thiết bị này không? Vui lòng trả lời 'tạo' hoặc 'không tạo'."), LabelUnknown}
	}
}

func (r *Router) handleMultipleConfigItem(ctx context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelNoCreate, LabelWrong:
		return outcome{replyOr(res, "Đã hủy yêu cầu tạo ticket. Cảm ơn bạn, hẹn gặp lại!"), LabelCancelled}
	case LabelExit:
		return exitOutcome(res)
	}

	serial := strings.TrimSpace(res.Fields[session.KeySerialNumber])
	if serial == "" {
		return outcome{replyOr(res, "Vui lòng cung cấp serial number chính xác của thiết bị cần tạo ticket."), LabelUnknown}
	}

	var match *sm.ConfigItem
	for i := range sess.PendingConfigItems {
		if sess.PendingConfigItems[i].SerialNumber == serial {
			match = &sess.PendingConfigItems[i]
			break
		}
	}
	if match == nil {
		reply := fmt.Sprintf("Serial %s không khớp với thiết bị nào trong danh sách. Vui lòng kiểm tra lại.", serial)
		return outcome{reply, LabelClarifySerial}
	}

	sess.PendingTicket[session.KeySerialNumber] = match.SerialNumber
	sess.PendingConfigItems = []sm.ConfigItem{*match}
	return r.checkOpenTickets(ctx, sess, match.SerialNumber)
}

func (r *Router) handleEdit(ctx context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelCreateTicket:
		return outcome{replyOr(res, "Đã chuyển sang chế độ tạo ticket mới. Bạn cần cung cấp: S/N hoặc ID thiết bị, loại thiết bị và nội dung sự cố."), LabelCreateTicket}
	case LabelExit:
		return exitOutcome(res)
	}

	id := strings.TrimSpace(res.Fields[session.KeyTicketID])
	if id == "" {
		return outcome{replyOr(res, "Để sửa ticket, bạn cần cung cấp Ticket ID."), LabelEditTicket}
	}

	t, err := r.gw.GetTicketByID(ctx, id)
	if err != nil {
		log.Printf("stage: session %s: fetching ticket %q: %v", sess.ID, id, err)
		return outcome{systemErrorReply, labelSystemError}
	}
	if t == nil {
		reply := fmt.Sprintf("Xin lỗi, mình không tìm thấy ticket %s trong hệ thống. Bạn vui lòng kiểm tra lại Ticket ID nhé. Chào tạm biệt bạn!", id)
		return outcome{reply, LabelExit}
	}

	info := formatTicketInfo(t)
	sess.SetPending(session.KeyTicketID, t.TicketID)
	sess.PendingTicket[session.KeyTicketInfo] = info

	reply := info + "\nBạn muốn sửa thông tin gì? Ví dụ: 'cập nhật mô tả thành: máy in không in được màu'."
	return outcome{reply, LabelAwaitUpdate}
}

func (r *Router) handleUpdatingTicket(_ context.Context, sess *session.Session, res classifier.Result) outcome {
	if res.Label == LabelExit {
		return exitOutcome(res)
	}

	updates := make(map[string]string)
	for _, f := range updatableFields {
		if v := strings.TrimSpace(res.Fields[f.key]); v != "" {
			updates[f.key] = v
		}
	}
	if len(updates) == 0 {
		return outcome{replyOr(res, "Vui lòng cho biết trường cần sửa và nội dung mới, ví dụ: 'cập nhật mô tả thành: máy in không in được màu'."), LabelUnknown}
	}

	data, err := json.Marshal(updates)
	if err != nil {
		log.Printf("stage: session %s: encoding update data: %v", sess.ID, err)
		return outcome{systemErrorReply, labelSystemError}
	}
	sess.PendingTicket[session.KeyUpdateData] = string(data)

	return outcome{formatUpdateConfirmation(sess.PendingTicket[session.KeyTicketID], updates), LabelAwaitEditConfirm}
}

func (r *Router) handleEditConfirmation(ctx context.Context, sess *session.Session, res classifier.Result) outcome {
	switch res.Label {
	case LabelCorrect:
		id := sess.PendingTicket[session.KeyTicketID]
		raw := sess.PendingTicket[session.KeyUpdateData]
		if id == "" || raw == "" {
			log.Printf("stage: session %s confirmed an edit with no pending update", sess.ID)
			return outcome{systemErrorReply, labelSystemError}
		}

		var fields map[string]string
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			log.Printf("stage: session %s: decoding update data: %v", sess.ID, err)
			return outcome{systemErrorReply, labelSystemError}
		}

		if err := r.gw.UpdateTicket(ctx, id, fields); err != nil {
			log.Printf("stage: session %s: updating ticket %s: %v", sess.ID, id, err)
			reply := fmt.Sprintf("Xin lỗi, mình chưa cập nhật được ticket %s. Bạn vui lòng nhập lại nội dung cần sửa nhé.", id)
			return outcome{reply, LabelAwaitUpdate}
		}

		reply := fmt.Sprintf("Ticket %s đã được cập nhật thành công. Cảm ơn bạn đã sử dụng dịch vụ, hẹn gặp lại!", id)
		return outcome{reply, LabelTicketUpdated}

	case LabelWrong:
		delete(sess.PendingTicket, session.KeyUpdateData)
		reply := sess.PendingTicket[session.KeyTicketInfo] + "\nVui lòng cung cấp lại nội dung cần sửa."
		return outcome{reply, LabelAwaitUpdate}

	case LabelExit:
		return exitOutcome(res)

	default:
		return outcome{replyOr(res, "Nội dung sửa trên có chính xác không ạ? Vui lòng trả lời 'đúng' hoặc 'sai'."), LabelUnknown}
	}
}

func formatConfigItemChoices(items []sm.ConfigItem) string {
	var b strings.Builder
	b.WriteString("Có nhiều thiết bị khớp với thông tin bạn cung cấp:\n")
	for i, it := range items {
		if i == maxListedItems {
			fmt.Fprintf(&b, "  ... và %d thiết bị khác\n", len(items)-maxListedItems)
			break
		}
		fmt.Fprintf(&b, "  %d. %s — S/N: %s — %s\n", i+1, it.Name, it.SerialNumber, it.Location)
	}
	b.WriteString("Vui lòng cung cấp serial number chính xác của thiết bị cần tạo ticket.")
	return b.String()
}

func formatTicketInfo(t *sm.Ticket) string {
	var b strings.Builder
	b.WriteString("Thông tin ticket hiện tại:\n")
	fmt.Fprintf(&b, "  • Ticket ID: %s\n", t.TicketID)
	fmt.Fprintf(&b, "  • Tiêu đề: %s\n", t.Summary)
	fmt.Fprintf(&b, "  • Trạng thái: %s\n", t.Status)
	if t.Assignee != "" {
		fmt.Fprintf(&b, "  • Người xử lý: %s\n", t.Assignee)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, "  • Độ ưu tiên: %s\n", t.Priority)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatUpdateConfirmation(ticketID string, updates map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mình xin xác nhận nội dung sửa cho ticket %s:\n", ticketID)
	for _, f := range updatableFields {
		if v, ok := updates[f.key]; ok {
			fmt.Fprintf(&b, "  • %s: %s\n", f.name, v)
		}
	}
	b.WriteString("Nội dung trên có chính xác không ạ?")
	return b.String()
}
