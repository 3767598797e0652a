package memstore

import (
	"context"
	"sort"

	"github.com/fkhayef/tripsplit/internal/notification"
)

type notificationStore struct {
	s *Store
}

var _ notification.Store = notificationStore{}

func (a notificationStore) Create(ctx context.Context, n *notification.Notification) error {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	a.s.notifSeq++
	n.ID = a.s.notifSeq
	n.IsRead = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = a.s.now().UTC()
	}
	a.s.notifications = append(a.s.notifications, *n)
	return nil
}

func (a notificationStore) GetByID(ctx context.Context, id int64) (*notification.Notification, error) {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	for _, n := range a.s.notifications {
		if n.ID == id {
			return &n, nil
		}
	}
	return nil, nil
}

func (a notificationStore) ListByRecipientID(ctx context.Context, recipientID int64, limit, offset int, unreadOnly bool) ([]*notification.Notification, int, error) {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	var matched []*notification.Notification
	for _, n := range a.s.notifications {
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		n := n
		matched = append(matched, &n)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	if offset >= total {
		return []*notification.Notification{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (a notificationStore) MarkAsRead(ctx context.Context, id int64) error {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	for i := range a.s.notifications {
		if a.s.notifications[i].ID == id {
			a.s.notifications[i].IsRead = true
		}
	}
	return nil
}

func (a notificationStore) MarkAllAsRead(ctx context.Context, recipientID int64) (int, error) {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	n := 0
	for i := range a.s.notifications {
		if a.s.notifications[i].RecipientID == recipientID && !a.s.notifications[i].IsRead {
			a.s.notifications[i].IsRead = true
			n++
		}
	}
	return n, nil
}

func (a notificationStore) GetUnreadCount(ctx context.Context, recipientID int64) (int, error) {
	a.s.notifMu.Lock()
	defer a.s.notifMu.Unlock()

	n := 0
	for _, item := range a.s.notifications {
		if item.RecipientID == recipientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}
