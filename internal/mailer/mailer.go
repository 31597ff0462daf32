// Package mailer is the notification delivery boundary: rendering a digest
// into a sendable message and handing it to an email transport. The digest
// pipeline depends only on the two interfaces here.
package mailer

import (
	"context"

	"jobflow/aggregator-service/internal/model"
)

// Message is a rendered, ready-to-send email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Renderer turns a digest (or the empty-digest signal) plus a recipient into
// a Message.
type Renderer interface {
	Digest(profile model.Profile, postings []model.Posting) (Message, error)
	Empty(profile model.Profile) (Message, error)
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
