// README: Operator notifications (non-blocking toasts) and their fan-out.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
	LevelWarning Level = "warning"
)

type Notification struct {
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier delivers a notification to operators. Implementations must not
// block the caller on slow consumers and never report delivery errors.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success, Failure and Warning build notifications stamped with the current time.
func Success(title, msg string) Notification {
	return Notification{Level: LevelSuccess, Title: title, Message: msg, At: time.Now()}
}

func Failure(title, msg string) Notification {
	return Notification{Level: LevelFailure, Title: title, Message: msg, At: time.Now()}
}

func Warning(title, msg string) Notification {
	return Notification{Level: LevelWarning, Title: title, Message: msg, At: time.Now()}
}

// LogNotifier writes notifications to the zerolog global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) {
	var ev *zerolog.Event
	switch n.Level {
	case LevelFailure:
		ev = log.Error()
	case LevelWarning:
		ev = log.Warn()
	default:
		ev = log.Info()
	}
	ev.Str("level_kind", string(n.Level)).Str("title", n.Title).Msg(n.Message)
}

// Multi fans a notification out to every notifier in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) {
	for _, nt := range m {
		if nt != nil {
			nt.Notify(ctx, n)
		}
	}
}
