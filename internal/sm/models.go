package sm

import "strings"

// ConfigItem is a device/asset record in SM, looked up by serial number.
type ConfigItem struct {
	ID           string `json:"CI_Id"`
	Name         string `json:"Name"`
	SerialNumber string `json:"SerialNum"`
	Type         string `json:"Type"`
	Location     string `json:"Location"`
	State        string `json:"State"`
	Province     string `json:"Province"`
	Status       string `json:"Status"`
	ContractID   string `json:"Contract_Id"`
	ContractName string `json:"Contract_Name"`
}

type Ticket struct {
	TicketID     string `json:"ticketid"`
	SerialNumber string `json:"serial_number"`
	Summary      string `json:"summary"`
	Status       string `json:"status"`
	Assignee     string `json:"assignee"`
	Priority     string `json:"priority"`
}

// Active reports whether the ticket is still open in SM. Anything not
// resolved, closed, or cancelled counts as active.
func (t Ticket) Active() bool {
	switch strings.ToLower(strings.TrimSpace(t.Status)) {
	case "resolved", "closed", "cancelled":
		return false
	}
	return true
}

type createTicketInput struct {
	SerialNumber string `json:"serial_number"`
	Summary      string `json:"summary"`
	RequesterID  string `json:"requester_id"`
	Area         string `json:"area"`
}

type createTicketResponse struct {
	TicketID string `json:"ticket_id"`
}

type updateTicketInput struct {
	TicketID string            `json:"ticket_id"`
	Fields   map[string]string `json:"fields"`
}

// updateTicketResponse mirrors the SM update envelope:
// {"ticket_num": "...", "activity": "update_ticket", "response_code": 200, "message": "Success"}
type updateTicketResponse struct {
	TicketNum    string `json:"ticket_num"`
	Activity     string `json:"activity"`
	ResponseCode int    `json:"response_code"`
	Message      string `json:"message"`
}
