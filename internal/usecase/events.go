package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/polkiloo/eventreg/internal/domain/model"
	"github.com/polkiloo/eventreg/internal/domain/repository"
)

type orderEvent struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	EventID int64  `json:"event_id"`
	Total   string `json:"total"`
	Status  string `json:"status"`
	ItemID  int64  `json:"item_id,omitempty"`
}

type rosterEvent struct {
	EventID    int64 `json:"event_id"`
	Assigned   int   `json:"assigned"`
	Unassigned int   `json:"unassigned"`
	Replace    bool  `json:"replace"`
}

func enqueue(ctx context.Context, w repository.OutboxWriter, eventType string, key int64, payload any, at time.Time) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	return w.Enqueue(ctx, &model.OutboxEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Key:       strconv.FormatInt(key, 10),
		Payload:   body,
		CreatedAt: at,
	})
}

func orderPayload(order *model.Order) orderEvent {
	return orderEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		EventID: order.EventID,
		Total:   order.Total.StringFixed(2),
		Status:  string(order.Status),
	}
}
