package domain

import "time"

// Message is a chat entry scoped to exactly one order. Append-only; never
// mutated or deleted by normal flow.
type Message struct {
	ID         string
	OrderID    string
	SenderID   string
	SenderRole SenderRole
	Body       string
	CreatedAt  time.Time
}
