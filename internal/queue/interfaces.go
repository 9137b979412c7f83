package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"prepnotify/internal/domain"
)

type Consumer interface {
	Start(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, msg DispatchMessage) error
}

// Dispatch targets.
const (
	TargetUser = "user"
	TargetRole = "role"
	TargetAll  = "all"
)

// DispatchMessage asks a consumer to run one dispatcher operation.
type DispatchMessage struct {
	Target  string          `json:"target"`
	UserID  int64           `json:"user_id,omitempty"`
	Role    string          `json:"role,omitempty"`
	Type    string          `json:"type"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (m DispatchMessage) Validate() error {
	switch m.Target {
	case TargetUser:
		if m.UserID <= 0 {
			return fmt.Errorf("%w: user_id required", domain.ErrInvalidPayload)
		}
	case TargetRole:
		if !domain.IsValidRole(m.Role) {
			return domain.ErrInvalidRole
		}
	case TargetAll:
	default:
		return fmt.Errorf("%w: unknown target %q", domain.ErrInvalidPayload, m.Target)
	}
	if !domain.IsValidNotificationType(m.Type) {
		return domain.ErrInvalidNotificationType
	}
	if m.Title == "" {
		return fmt.Errorf("%w: title required", domain.ErrInvalidPayload)
	}
	return nil
}

// RoutingKey is prefix.target, e.g. notification.role.
func (m DispatchMessage) RoutingKey(prefix string) string {
	return prefix + "." + m.Target
}
