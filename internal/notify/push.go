// README: FCM topic push for operators who are away from the dashboard.
package notify

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
)

type messageSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

// PushNotifier sends failure and warning notifications to an FCM topic.
// Success toasts stay on the dashboard only.
type PushNotifier struct {
	sender  messageSender
	topic   string
	timeout time.Duration
}

func NewPushNotifier(ctx context.Context, app *firebase.App, topic string) (*PushNotifier, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialising firebase messaging client: %w", err)
	}
	return &PushNotifier{sender: client, topic: topic, timeout: 5 * time.Second}, nil
}

func (p *PushNotifier) Notify(ctx context.Context, n Notification) {
	if n.Level == LevelSuccess {
		return
	}
	msg := &messaging.Message{
		Topic: p.topic,
		Data: map[string]string{
			"type":  "operator_notification",
			"level": string(n.Level),
			"at":    n.At.UTC().Format(time.RFC3339),
		},
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
	}
	// Detached from the request so a cancelled request still delivers.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if _, err := p.sender.Send(sendCtx, msg); err != nil {
			log.Warn().Err(err).Str("topic", p.topic).Msg("FCM push failed")
		}
	}()
}
