package dto

import (
	"github.com/google/uuid"
)

type MarkAsReadRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required"`
}

type UnreadCountResponse struct {
	Count int `json:"count"`
}

type NotificationListQuery struct {
	UnreadOnly bool
}
