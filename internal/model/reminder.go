package model

import (
	"strings"
	"time"
)

// Channel identifies how a reminder is delivered. The set is closed; the
// dispatch job switches exhaustively over it.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// IsValid reports whether the channel is one of the known senders.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// ReminderStatus constants. Sent and failed are terminal.
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
)

// ReminderBatchSize bounds how many due reminders one dispatch run picks up.
const ReminderBatchSize = 100

// Reminder is a scheduled payment reminder for a circle contribution.
type Reminder struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	CircleID      string         `json:"circle_id"`
	Channel       Channel        `json:"channel"`
	Template      string         `json:"template"`
	Amount        Cents          `json:"amount"`
	DueDate       time.Time      `json:"due_date"`
	ScheduledFor  time.Time      `json:"scheduled_for"`
	Status        ReminderStatus `json:"status"`
	FailureReason string         `json:"failure_reason,omitempty"`
}

// RecipientProfile carries the contact fields dispatch needs. Email and
// phone may be empty; their channels fail fast when the field is missing.
type RecipientProfile struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`
}

// RenderMessage substitutes the {name}, {amount} and {due_date} placeholders
// in a reminder template.
func (r *Reminder) RenderMessage(recipientName string) string {
	msg := r.Template
	msg = strings.ReplaceAll(msg, "{name}", recipientName)
	msg = strings.ReplaceAll(msg, "{amount}", r.Amount.String())
	msg = strings.ReplaceAll(msg, "{due_date}", r.DueDate.Format("2006-01-02"))
	return msg
}
