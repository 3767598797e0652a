package notification

import "context"

// Store is the persistence port for notifications. GetByID returns nil,
// nil when the notification does not exist.
type Store interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (*Notification, error)
	// ListByRecipientID returns one page, newest first, and the total count.
	ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*Notification, int, error)
	MarkAsRead(ctx context.Context, id int64) error
	MarkAllAsRead(ctx context.Context, recipientID int64) (int, error)
	GetUnreadCount(ctx context.Context, recipientID int64) (int, error)
}
