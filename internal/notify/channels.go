package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_market/internal/jobs"
)

// Job types registered on the notifications queue.
const (
	JobTypeEmail = "email.send"
	JobTypeSMS   = "sms.send"
)

type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SMSJob struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// EmailSender and SMSSender are the transport seams; the real
// implementations (SMTP relay, SMS provider API) live outside this
// service.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// RegisterHandlers wires the channel handlers onto the engine. A
// transport error propagates to the engine so the occurrence is retried
// under the queue's backoff policy.
func RegisterHandlers(engine *jobs.Engine, email EmailSender, sms SMSSender) error {
	errEmail := engine.Handle(QueueName, JobTypeEmail, func(ctx context.Context, payload json.RawMessage) error {
		var job EmailJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("unmarshal email job: %w", err)
		}
		return email.Send(ctx, job.To, job.Subject, job.Body)
	})
	if errEmail != nil {
		return errEmail
	}

	return engine.Handle(QueueName, JobTypeSMS, func(ctx context.Context, payload json.RawMessage) error {
		var job SMSJob
		if err := json.Unmarshal(payload, &job); err != nil {
			return fmt.Errorf("unmarshal sms job: %w", err)
		}
		return sms.Send(ctx, job.Phone, job.Message)
	})
}

// LogEmailSender and LogSMSSender are development stand-ins that print
// instead of sending.
type LogEmailSender struct{}

func (LogEmailSender) Send(_ context.Context, to, subject, _ string) error {
	fmt.Printf("email to %s: %s\n", to, subject)
	return nil
}

type LogSMSSender struct{}

func (LogSMSSender) Send(_ context.Context, phone, message string) error {
	fmt.Printf("sms to %s: %s\n", phone, message)
	return nil
}
