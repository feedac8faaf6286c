package preferences

import (
	"time"

	"github.com/lib/pq"
)

// Preference is one row per user, overwritten on every upsert.
type Preference struct {
	UserID       uint64         `gorm:"primaryKey;autoIncrement:false"`
	Assets       pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	InvestorType string         `gorm:"type:varchar(50);not null"`
	ContentTypes pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time      `gorm:"not null;default:now()"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()"`
}
