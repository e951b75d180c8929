package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/model"
)

// ReminderDispatchJobName identifies the job in logs and the job log.
const ReminderDispatchJobName = "reminder_dispatch"

// ReminderSource provides the reminder rows the dispatch job owns.
type ReminderSource interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]*model.Reminder, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, reason string) error
}

// RecipientSource reads the contact profile for a reminder's user.
type RecipientSource interface {
	GetRecipient(ctx context.Context, userID string) (*model.RecipientProfile, error)
}

// MessageDispatcher routes a rendered message through the channel senders.
type MessageDispatcher interface {
	Dispatch(ctx context.Context, channel model.Channel, profile *model.RecipientProfile, message string, data map[string]string) error
}

// ReminderDispatchJob sends due payment reminders.
//
// One run picks up at most ReminderBatchSize scheduled reminders, earliest
// first; the bound is the job's backpressure control. The message template
// placeholders {name}, {amount} and {due_date} are substituted before
// dispatch. Email and SMS fail fast when the recipient profile lacks the
// contact field. A dispatched reminder is marked sent; any failure marks it
// failed with the captured reason and the batch continues.
type ReminderDispatchJob struct {
	reminders  ReminderSource
	recipients RecipientSource
	dispatcher MessageDispatcher
	recorder   Recorder
}

// NewReminderDispatchJob creates the job with its collaborators.
func NewReminderDispatchJob(reminders ReminderSource, recipients RecipientSource, dispatcher MessageDispatcher, recorder Recorder) *ReminderDispatchJob {
	return &ReminderDispatchJob{
		reminders:  reminders,
		recipients: recipients,
		dispatcher: dispatcher,
		recorder:   recorder,
	}
}

// Name returns the job name.
func (j *ReminderDispatchJob) Name() string { return ReminderDispatchJobName }

// Run executes one dispatch batch.
func (j *ReminderDispatchJob) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	due, err := j.reminders.ListDue(ctx, start, model.ReminderBatchSize)
	if err != nil {
		recordFatal(ctx, j.recorder, ReminderDispatchJobName, start, err)
		return nil, fmt.Errorf("listing due reminders: %w", err)
	}

	res := newResult(ReminderDispatchJobName)

	for _, reminder := range due {
		res.Processed++

		if err := j.dispatchOne(ctx, reminder); err != nil {
			if errors.Is(err, database.ErrStaleRow) {
				// Another run claimed the reminder first.
				res.Skipped++
				continue
			}
			res.fail(reminder.ID, err)
			if markErr := j.reminders.MarkFailed(ctx, reminder.ID, err.Error()); markErr != nil && !errors.Is(markErr, database.ErrStaleRow) {
				res.warn("marking reminder "+reminder.ID+" failed", markErr)
			}
			continue
		}

		res.Succeeded++
	}

	res.Stats["sent"] = res.Succeeded
	res.Stats["failed"] = res.Failed
	res.Stats["skipped"] = res.Skipped

	res.finalize(start)
	record(ctx, j.recorder, res)
	return res, nil
}

// dispatchOne renders and sends a single reminder, then marks it sent.
func (j *ReminderDispatchJob) dispatchOne(ctx context.Context, reminder *model.Reminder) error {
	if !reminder.Channel.IsValid() {
		return fmt.Errorf("unknown channel %q", reminder.Channel)
	}

	profile, err := j.recipients.GetRecipient(ctx, reminder.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("recipient profile %s not found", reminder.UserID)
		}
		return fmt.Errorf("loading recipient profile: %w", err)
	}

	message := reminder.RenderMessage(profile.Name)
	data := map[string]string{
		"reminder_id": reminder.ID,
		"circle_id":   reminder.CircleID,
	}

	if err := j.dispatcher.Dispatch(ctx, reminder.Channel, profile, message, data); err != nil {
		return err
	}

	return j.reminders.MarkSent(ctx, reminder.ID)
}
