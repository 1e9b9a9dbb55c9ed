package dto

import "github.com/noah-isme/postgrad-supervision-api/internal/models"

// NotificationListResponse is a recipient's notifications with the unread total.
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unreadCount"`
}

// BulkResult reports how many rows a bulk operation touched.
type BulkResult struct {
	Affected int64 `json:"affected"`
}
