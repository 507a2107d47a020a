package stage

import (
	"fmt"
	"strings"

	"github.com/anthonybui311/AI-Chat-bot-ticket/internal/session"
)

// requiredFields is the minimum data a ticket needs before confirmation.
var requiredFields = []string{
	session.KeySerialNumber,
	session.KeyDeviceType,
	session.KeyProblemDescription,
}

// fieldNames maps pending-ticket keys to the Vietnamese names shown to the
// user in confirmation and missing-field messages.
var fieldNames = map[string]string{
	session.KeySerialNumber:       "S/N hoặc ID thiết bị",
	session.KeyDeviceType:         "Loại thiết bị",
	session.KeyProblemDescription: "Nội dung sự cố",
	session.KeyTicketID:           "Ticket ID",
}

// ValidateTicketData reports whether the pending ticket has every required
// field, and which keys are missing or blank. The missing list preserves the
// declaration order of requiredFields.
func ValidateTicketData(data map[string]string) (bool, []string) {
	var missing []string
	for _, key := range requiredFields {
		if strings.TrimSpace(data[key]) == "" {
			missing = append(missing, key)
		}
	}
	return len(missing) == 0, missing
}

func formatConfirmation(data map[string]string) string {
	var b strings.Builder
	b.WriteString("Mình xin xác nhận thông tin như sau:\n")
	for _, key := range requiredFields {
		fmt.Fprintf(&b, "  • %s: %s\n", fieldNames[key], data[key])
	}
	b.WriteString("Thông tin trên có chính xác không ạ?")
	return b.String()
}

func formatMissingFields(missing []string) string {
	names := make([]string, len(missing))
	for i, key := range missing {
		names[i] = fieldNames[key]
	}
	return fmt.Sprintf("Mình vẫn còn thiếu thông tin: %s. Bạn vui lòng bổ sung giúp mình nhé.",
		strings.Join(names, ", "))
}

// ticketSummary builds the one-line summary sent to the ticket system. The
// device type is dropped when the description already mentions it, so
// "máy in" + "máy in hỏng" does not become "máy in máy in hỏng".
func ticketSummary(data map[string]string) string {
	device := strings.TrimSpace(data[session.KeyDeviceType])
	desc := strings.TrimSpace(data[session.KeyProblemDescription])
	if device == "" {
		return desc
	}
	if desc == "" {
		return device
	}
	if strings.Contains(strings.ToLower(desc), strings.ToLower(device)) {
		return desc
	}
	return device + " " + desc
}
