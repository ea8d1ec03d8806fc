package notifier

import (
	"context"

	"github.com/evrwallet/evrwallet-daemon/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type logNotifier struct{}

// NewLogNotifier returns a ports.Notifier that only logs notifications.
func NewLogNotifier() ports.Notifier {
	return logNotifier{}
}

func (logNotifier) ShowNotification(
	_ context.Context, notification ports.Notification,
) error {
	logNotification(notification)
	return nil
}

func logNotification(notification ports.Notification) {
	entry := log.WithField("title", notification.Title)
	if notification.Link != "" {
		entry = entry.WithField("link", notification.Link)
	}
	entry.Info(notification.Body)
}
