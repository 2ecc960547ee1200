// Package notify carries toast-style user notifications out of the domain services.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/unyte/adconnect/pkg/models"
)

// Notifier delivers a notification. Delivery is fire-and-forget: there is no acknowledgment.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification)
}

// Collector keeps notifications in memory until they are drained into a response.
type Collector struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Notify(_ context.Context, notification models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.notifications = append(c.notifications, notification)
}

// Drain returns the collected notifications and empties the collector.
func (c *Collector) Drain() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := c.notifications
	c.notifications = nil

	if drained == nil {
		return []models.Notification{}
	}

	return drained
}

// Logger writes notifications to a structured logger.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(ctx context.Context, notification models.Notification) {
	level := slog.LevelInfo

	switch notification.Kind {
	case models.NotificationError:
		level = slog.LevelError
	case models.NotificationWarning:
		level = slog.LevelWarn
	case models.NotificationSuccess, models.NotificationInfo:
	}

	l.logger.Log(ctx, level, notification.Title, "kind", notification.Kind, "description", notification.Description)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, notification models.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, notification)
		}
	}
}

// Success builds a success notification.
func Success(title, description string) models.Notification {
	return models.Notification{Kind: models.NotificationSuccess, Title: title, Description: description}
}

// Error builds an error notification.
func Error(title, description string) models.Notification {
	return models.Notification{Kind: models.NotificationError, Title: title, Description: description}
}

// Warning builds a warning notification.
func Warning(title, description string) models.Notification {
	return models.Notification{Kind: models.NotificationWarning, Title: title, Description: description}
}

// Info builds an informational notification.
func Info(title, description string) models.Notification {
	return models.Notification{Kind: models.NotificationInfo, Title: title, Description: description}
}
