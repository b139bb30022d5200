// Package mailer delivers plain text emails.
//
// Dispatcher accepts messages and hands them to a Sender from a pool of
// background workers, so callers never wait for the mail server.
package mailer

import (
	"context"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers message synchronously
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
