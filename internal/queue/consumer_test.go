package queue

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent []MailRequestedEvent
	err  error
}

func (f *fakeSender) Send(to, subject, bodyText string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, MailRequestedEvent{To: to, Subject: subject, BodyText: bodyText})
	return nil
}

func TestHandleMessage(t *testing.T) {
	body, err := json.Marshal(MailRequestedEvent{
		Kind:        MailKindVerification,
		To:          "ana@example.com",
		Subject:     "Verify your email address",
		BodyText:    "hello",
		RequestedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	s := &fakeSender{}
	require.NoError(t, handleMessage(body, s))
	require.Len(t, s.sent, 1)
	assert.Equal(t, "ana@example.com", s.sent[0].To)
	assert.Equal(t, "Verify your email address", s.sent[0].Subject)
}

func TestHandleMessageBadPayload(t *testing.T) {
	s := &fakeSender{}
	assert.Error(t, handleMessage([]byte("{not json"), s))
	assert.Empty(t, s.sent)
}

func TestHandleMessageMissingRecipient(t *testing.T) {
	body, _ := json.Marshal(MailRequestedEvent{Kind: MailKindOTP})
	s := &fakeSender{}
	assert.Error(t, handleMessage(body, s))
}

func TestHandleMessageSenderFailure(t *testing.T) {
	body, _ := json.Marshal(MailRequestedEvent{Kind: MailKindOTP, To: "ana@example.com"})
	s := &fakeSender{err: errors.New("smtp down")}
	err := handleMessage(body, s)
	assert.ErrorContains(t, err, "smtp down")
}
