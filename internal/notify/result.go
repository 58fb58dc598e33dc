package notify

// Role identifies who a notification is addressed to.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
	// RoleDirect marks sends made through Send rather than Notify.
	RoleDirect Role = "direct"
)

// Status is the outcome of one notification attempt.
type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// SendResult is the outcome of one send. Exactly one of MessageID (on
// success) or Error (on failure) is set, unless the send was Skipped.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
	Skipped   bool   `json:"skipped,omitempty"`
}

func (r SendResult) status() Status {
	switch {
	case r.Skipped:
		return StatusSkipped
	case r.Success:
		return StatusSent
	default:
		return StatusFailed
	}
}

// Result holds both outcomes for one lead.
type Result struct {
	LeadID string     `json:"leadId"`
	Client SendResult `json:"client"`
	Admin  SendResult `json:"admin"`
}

// Success reports whether neither send failed. Skipped sends count as done.
func (r Result) Success() bool {
	return (r.Client.Success || r.Client.Skipped) && (r.Admin.Success || r.Admin.Skipped)
}
