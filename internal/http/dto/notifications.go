package dto

import (
	"encoding/json"

	"prepnotify/internal/model"
)

// CreateNotificationRequest addresses one user, one role or everybody via Target.
type CreateNotificationRequest struct {
	Target  string          `json:"target"`
	UserID  int64           `json:"user_id"`
	Role    string          `json:"role"`
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type CreateNotificationResponse struct {
	Created       int                  `json:"created"`
	Notifications []model.Notification `json:"notifications"`
}

type ListNotificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type StatusResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
