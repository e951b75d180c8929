// Package notify defines the notification channel senders consumed by the
// reminder dispatch and swap expiration jobs.
//
// Each sender takes a recipient identifier, a message and optional
// structured data, and reports success with an error. Provider integrations
// (FCM, email gateway, SMS aggregator) live behind the ChannelSender
// interface; the implementations here are logging stubs wired the same way
// a real provider client would be.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kudisave/recon/internal/model"
)

// Sender errors surfaced to the dispatch job. Missing contact fields are
// domain errors: the job marks the reminder failed and moves on.
var (
	ErrMissingEmail       = errors.New("recipient profile has no email address")
	ErrMissingPhone       = errors.New("recipient profile has no phone number")
	ErrMissingDeviceToken = errors.New("recipient profile has no device token")
	ErrUnknownChannel     = errors.New("unknown notification channel")
)

// ChannelSender delivers one message to one recipient.
type ChannelSender interface {
	Send(ctx context.Context, recipient, message string, data map[string]string) error
}

// Dispatcher routes a message to the sender for its channel, after
// validating that the recipient profile carries the contact field the
// channel requires.
type Dispatcher struct {
	push  ChannelSender
	email ChannelSender
	sms   ChannelSender
}

// NewDispatcher creates a dispatcher over the three channel senders.
func NewDispatcher(push, email, sms ChannelSender) *Dispatcher {
	return &Dispatcher{push: push, email: email, sms: sms}
}

// Dispatch sends message to the profile's contact address for the channel.
// Email and SMS fail fast when the profile lacks the contact field; push
// falls back to the user ID as topic when no device token is registered.
func (d *Dispatcher) Dispatch(ctx context.Context, channel model.Channel, profile *model.RecipientProfile, message string, data map[string]string) error {
	data = timestamped(data)
	switch channel {
	case model.ChannelPush:
		recipient := profile.DeviceToken
		if recipient == "" {
			recipient = profile.UserID
		}
		return d.push.Send(ctx, recipient, message, data)
	case model.ChannelEmail:
		if profile.Email == "" {
			return ErrMissingEmail
		}
		return d.email.Send(ctx, profile.Email, message, data)
	case model.ChannelSMS:
		if profile.Phone == "" {
			return ErrMissingPhone
		}
		return d.sms.Send(ctx, profile.Phone, message, data)
	}
	return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
}

// PushSender delivers push notifications. Stub pending FCM integration.
type PushSender struct{}

// Send logs and succeeds.
func (s *PushSender) Send(ctx context.Context, recipient, message string, data map[string]string) error {
	log.Printf("[notify] push to %s: %s", maskRecipient(recipient), message)
	return nil
}

// EmailSender delivers email. Stub pending gateway integration.
type EmailSender struct {
	From string
}

// Send logs and succeeds.
func (s *EmailSender) Send(ctx context.Context, recipient, message string, data map[string]string) error {
	log.Printf("[notify] email from %s to %s: %s", s.From, maskRecipient(recipient), message)
	return nil
}

// SMSSender delivers SMS. Stub pending aggregator integration.
type SMSSender struct {
	SenderID string
}

// Send logs and succeeds.
func (s *SMSSender) Send(ctx context.Context, recipient, message string, data map[string]string) error {
	log.Printf("[notify] sms from %s to %s: %s", s.SenderID, maskRecipient(recipient), message)
	return nil
}

// NopSender drops messages. Used when notifications are disabled.
type NopSender struct{}

// Send does nothing.
func (NopSender) Send(ctx context.Context, recipient, message string, data map[string]string) error {
	return nil
}

// maskRecipient masks a contact identifier for logging
func maskRecipient(recipient string) string {
	if len(recipient) <= 6 {
		return "***"
	}
	return recipient[:3] + "..." + recipient[len(recipient)-3:]
}

// timestamped returns data with a dispatch timestamp added, for providers
// that carry structured payloads.
func timestamped(data map[string]string) map[string]string {
	out := make(map[string]string, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	out["dispatched_at"] = time.Now().UTC().Format(time.RFC3339)
	return out
}
