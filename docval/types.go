package docval

// Status is the terminal state of a structural validation.
type Status string

const (
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Outcome is the result of validating one document pair. Reason is empty
// when the pair is accepted.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Accepted reports whether the pair passed both structural checks.
func (o Outcome) Accepted() bool {
	return o.Status == StatusAccepted
}
