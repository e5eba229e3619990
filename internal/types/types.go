package types

import "time"

// Direction tells which side of the threshold fires a subscription.
type Direction string

const (
	DirectionAbove Direction = "above"
	DirectionBelow Direction = "below"
	// DirectionPercent is reserved for movement-based alerts. Rows may carry it,
	// but the command layer rejects it and evaluation skips it.
	DirectionPercent Direction = "percent"
)

// ParseDirection maps user input to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionAbove, DirectionBelow:
		return Direction(s), true
	}
	return "", false
}

type Subscription struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Asset     string    `json:"asset"`
	Threshold float64   `json:"threshold"`
	Direction Direction `json:"direction"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is the audit record of a delivered alert. It is the sole input
// to duplicate suppression.
type Notification struct {
	ID            int64     `json:"id"`
	ChatID        int64     `json:"chat_id"`
	Asset         string    `json:"asset"`
	Direction     Direction `json:"direction"`
	ObservedPrice float64   `json:"observed_price"`
	Threshold     float64   `json:"threshold"`
	SentAt        time.Time `json:"sent_at"`
}

// PricePoint is one observed price for an asset.
type PricePoint struct {
	Asset      string    `json:"asset"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// DeliveryResult classifies the outcome of one send attempt.
type DeliveryResult int

const (
	DeliverySuccess DeliveryResult = iota
	// DeliveryBlocked means the recipient blocked the bot or the chat is gone;
	// the caller should deactivate that recipient's subscriptions.
	DeliveryBlocked
	// DeliveryTransient covers network and rate-limit errors; the next cycle retries.
	DeliveryTransient
)
