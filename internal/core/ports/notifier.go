package ports

import "context"

// Notification is shown to the user when something relevant happens to one
// of the accounts.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Link  string `json:"link,omitempty"`
}

type Notifier interface {
	ShowNotification(ctx context.Context, notification Notification) error
}

// TimeSource returns the current server time in milliseconds.
type TimeSource interface {
	FetchServerTime(ctx context.Context) (int64, error)
}
