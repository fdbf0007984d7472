// Package queue defines message payloads exchanged over the message
// broker and the background consumer that delivers them.
package queue

import "time"

// MailQueueName is the durable queue carrying outbound email jobs.
const MailQueueName = "email.outbound"

// Mail kinds, used by the consumer for logging and by operators when
// inspecting dead messages. The payload already carries the final
// subject and body, so the consumer never needs to template anything.
const (
	MailKindVerification  = "verification"
	MailKindPasswordReset = "password_reset"
	MailKindOTP           = "otp"
)

// MailRequestedEvent is published when a handler wants an email
// delivered. Delivery is fire-and-forget from the request's point of
// view: registration or a password-reset request succeeds even when the
// broker or the mail server is down; failures are logged, never
// surfaced to the caller.
type MailRequestedEvent struct {
	Kind        string    `json:"kind"`
	To          string    `json:"to"`
	Subject     string    `json:"subject"`
	BodyText    string    `json:"body_text"`
	RequestedAt time.Time `json:"requested_at"`
}
