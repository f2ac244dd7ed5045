package model

import "time"

type Direction string

const (
	Inbound  Direction = "Inbound"
	Outbound Direction = "Outbound"
)

type Status string

const (
	// Sending is the initial state of an outbound message, written before
	// the gateway is contacted.
	Sending Status = "Sending"
	// Sent means the gateway acknowledged the outbound message.
	Sent Status = "Sent"
	// Received is the sole and terminal state of an inbound message.
	Received Status = "Received"
	// Failed means the gateway rejected the outbound message. The row is
	// kept with the error recorded, never rolled back.
	Failed Status = "Failed"
)

// Message is a single logged SMS. PhoneNumber is always the normalized
// form; it is the conversation key.
type Message struct {
	ID                string
	Direction         Direction
	PhoneNumber       string
	Body              string
	Status            Status
	ProviderMessageID *string
	LinkedType        *string
	LinkedID          *string
	ContactName       *string
	SentBy            string
	SentAt            time.Time
	Read              bool
	LastError         *string
}

// Conversation is one row of the inbox list: the most recent message for a
// phone number plus its unread count. It is derived from the message log on
// every read and never stored.
type Conversation struct {
	PhoneNumber   string
	ContactName   *string
	LastMessage   string
	LastDirection Direction
	LastMessageAt time.Time
	LinkedType    *string
	LinkedID      *string
	UnreadCount   int
}
