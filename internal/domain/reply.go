package domain

import "time"

// ReplySender indicates who authored a reply.
type ReplySender string

const (
	SenderUser  ReplySender = "USER"
	SenderAdmin ReplySender = "ADMIN"
	SenderBot   ReplySender = "BOT"
)

// Reply is one message in a ticket's thread. Replies are immutable once
// created; the only way a reply row disappears is the cascade when its
// ticket is deleted.
type Reply struct {
	ID         int64
	TicketID   int64
	Sender     ReplySender
	Body       string
	IsInternal bool
	CreatedAt  time.Time
}
