package stage

import "strings"

// exitWords end the conversation immediately, whatever stage it is in,
// without a round trip to the classifier.
var exitWords = map[string]bool{
	"tạm biệt": true,
	"tam biet": true,
	"thoát":    true,
	"thoat":    true,
	"bye":      true,
	"exit":     true,
	"quit":     true,
}

// IsExitCommand reports whether the raw user input is an exit word.
func IsExitCommand(text string) bool {
	return exitWords[strings.ToLower(strings.TrimSpace(text))]
}

// Intent labels exchanged between the classifier, the handlers, and the
// Router. They are configuration, not protocol: only ever compared for
// equality inside this system. Spellings follow the Vietnamese vocabulary
// the prompts instruct the model to emit.
const (
	LabelCreateTicket = "tạo ticket"
	LabelEditTicket   = "sửa ticket"
	LabelExit         = "thoát"
	LabelUnknown      = "không xác định"

	LabelCorrect     = "đúng"
	LabelWrong       = "sai"
	LabelUpdateInfo  = "cập nhật thông tin"
	LabelCheckSerial = "kiểm tra serial"
	LabelCreate      = "tạo"
	LabelNoCreate    = "không tạo"

	// Labels produced by handlers to drive transitions.
	LabelAwaitConfirm     = "chờ xác nhận"
	LabelAwaitUpdate      = "chờ thông tin sửa"
	LabelAwaitEditConfirm = "chờ xác nhận sửa"
	LabelProcessing       = "đang xử lý"
	LabelConfirmDuplicate = "xác nhận tạo mới"
	LabelClarifySerial    = "cần làm rõ"

	// Terminal labels: the conversation ends after these.
	LabelTicketCreated = "ticket đã được tạo"
	LabelTicketUpdated = "ticket đã được cập nhật"
	LabelCancelled     = "đã hủy"

	// Internal label forcing a fail-safe reset to main.
	labelSystemError = "lỗi hệ thống"
)
