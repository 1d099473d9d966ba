package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Campaign is a fundraising campaign. At most one campaign is active at
// a time; the active flag is backed by a partial unique index.
type Campaign struct {
	ID               uint            `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	GoalAmount       decimal.Decimal `json:"goal_amount"`
	CurrentAmount    decimal.Decimal `json:"current_amount"`
	IsActive         bool            `json:"is_active"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	FeaturedImage    string          `json:"featured_image"`
	FeaturedVideoURL string          `json:"featured_video_url"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ProgressPercentage reports how far the campaign is toward its goal,
// capped at 100.
func (c *Campaign) ProgressPercentage() float64 {
	if !c.GoalAmount.IsPositive() {
		return 0
	}

	pct, _ := c.CurrentAmount.
		Div(c.GoalAmount).
		Mul(decimal.NewFromInt(100)).
		Float64()
	if pct > 100 {
		return 100
	}

	return pct
}
