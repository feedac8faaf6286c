package dashboard

import (
	"encoding/json"
	"time"
)

type ItemType string

const (
	News    ItemType = "news"
	Prices  ItemType = "prices"
	Insight ItemType = "ai"
	Meme    ItemType = "meme"
)

// ItemTypes is the fixed slot order of a daily dashboard.
var ItemTypes = []ItemType{News, Prices, Insight, Meme}

func (t ItemType) Valid() bool {
	switch t {
	case News, Prices, Insight, Meme:
		return true
	}
	return false
}

// Item is one daily slot. At most one per (user, date, type).
type Item struct {
	ID        uint64          `gorm:"primaryKey"`
	UserID    uint64          `gorm:"not null;index;uniqueIndex:uq_user_date_itemtype,priority:1"`
	Date      time.Time       `gorm:"type:date;not null;index;uniqueIndex:uq_user_date_itemtype,priority:2"`
	ItemType  ItemType        `gorm:"type:varchar(20);not null;uniqueIndex:uq_user_date_itemtype,priority:3"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null;default:'{}'::jsonb"`
	CreatedAt time.Time       `gorm:"not null;default:now()"`
}

func (Item) TableName() string { return "dashboard_items" }

// Decode returns the typed payload of the item.
func (i Item) Decode() (Payload, error) {
	return DecodePayload(i.ItemType, i.Payload)
}

// Vote is +1 or -1. At most one per (user, item); re-voting updates it.
type Vote struct {
	ID              uint64    `gorm:"primaryKey"`
	UserID          uint64    `gorm:"not null;index;uniqueIndex:uq_user_dashboard_item_vote,priority:1"`
	DashboardItemID uint64    `gorm:"not null;index;uniqueIndex:uq_user_dashboard_item_vote,priority:2"`
	Value           int       `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null;default:now()"`
	UpdatedAt       time.Time `gorm:"not null;default:now()"`
}

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
