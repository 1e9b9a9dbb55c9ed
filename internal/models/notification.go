package models

import "time"

// NotificationType categorises in-app notifications for the client.
type NotificationType string

const (
	NotificationSubmission NotificationType = "submission"
	NotificationResource   NotificationType = "resource"
	NotificationFeedback   NotificationType = "feedback"
	NotificationApproval   NotificationType = "approval"
	NotificationSystem     NotificationType = "system"
)

var notificationIcons = map[NotificationType]string{
	NotificationSubmission: "file-upload",
	NotificationResource:   "book-open",
	NotificationFeedback:   "message-circle",
	NotificationApproval:   "check-circle",
	NotificationSystem:     "bell",
}

// Icon returns the fixed client icon for the type, nil for unknown types.
func (t NotificationType) Icon() *string {
	icon, ok := notificationIcons[t]
	if !ok {
		return nil
	}
	return &icon
}

// Notification is an in-app message owned by its recipient.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"userId"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Icon      *string          `db:"icon" json:"icon,omitempty"`
	Link      *string          `db:"link" json:"link,omitempty"`
	Unread    bool             `db:"unread" json:"unread"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// NotificationFilter narrows a recipient's notification listing.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
}
