package workflow

import "strings"

// Trigger represents a user action that can cause a status transition
type Trigger string

const (
	TriggerSubmit  Trigger = "SUBMIT"
	TriggerApprove Trigger = "APPROVE"
	TriggerReject  Trigger = "REJECT"
	TriggerPay     Trigger = "PAY"
	TriggerDelete  Trigger = "DELETE"
)

// canonicalOrder is the order actions are offered in
var canonicalOrder = []Trigger{
	TriggerSubmit,
	TriggerApprove,
	TriggerReject,
	TriggerPay,
	TriggerDelete,
}

// Triggers returns all voucher actions in canonical order
func Triggers() []Trigger {
	return append([]Trigger(nil), canonicalOrder...)
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is a known voucher action
func (t Trigger) IsValid() bool {
	for _, known := range canonicalOrder {
		if t == known {
			return true
		}
	}
	return false
}

// Verb returns the lower-case action name used in URLs and messages
func (t Trigger) Verb() string {
	return strings.ToLower(string(t))
}

// ParseTrigger resolves a verb such as "approve" into a Trigger
func ParseTrigger(verb string) (Trigger, bool) {
	t := Trigger(strings.ToUpper(strings.TrimSpace(verb)))
	if !t.IsValid() {
		return "", false
	}
	return t, true
}
