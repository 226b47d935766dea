package schema

import "strings"

// Notifications collects validation error messages in the order they were
// found. The order is the display order.
type Notifications struct {
	messages []string
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (n *Notifications) AddError(message string) {
	n.messages = append(n.messages, message)
}

func (n *Notifications) IsEmpty() bool {
	return len(n.messages) == 0
}

// ErrorMessage joins every message with a single space.
func (n *Notifications) ErrorMessage() string {
	return strings.Join(n.messages, " ")
}

// Concat appends the messages of other after the ones already held.
func (n *Notifications) Concat(other *Notifications) {
	if other == nil {
		return
	}
	n.messages = append(n.messages, other.messages...)
}

func (n *Notifications) Messages() []string {
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
