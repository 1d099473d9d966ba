package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mattraynor/fundraiser-api/internal/domain"
)

type Campaign struct {
	ID                 uint            `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	GoalAmount         decimal.Decimal `json:"goal_amount"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	ProgressPercentage float64         `json:"progress_percentage"`
	TicketsSold        int64           `json:"tickets_sold"`
	IsActive           bool            `json:"is_active"`
	StartDate          time.Time       `json:"start_date"`
	EndDate            *time.Time      `json:"end_date"`
	FeaturedImage      string          `json:"featured_image"`
	FeaturedVideoURL   string          `json:"featured_video_url"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func NewCampaign(c domain.Campaign, ticketsSold int64) Campaign {
	return Campaign{
		ID:                 c.ID,
		Title:              c.Title,
		Description:        c.Description,
		GoalAmount:         c.GoalAmount,
		CurrentAmount:      c.CurrentAmount,
		ProgressPercentage: c.ProgressPercentage(),
		TicketsSold:        ticketsSold,
		IsActive:           c.IsActive,
		StartDate:          c.StartDate,
		EndDate:            c.EndDate,
		FeaturedImage:      c.FeaturedImage,
		FeaturedVideoURL:   c.FeaturedVideoURL,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

type CampaignUpdate struct {
	ID             uint      `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url"`
	VideoURL       string    `json:"video_url"`
	VideoEmbedCode string    `json:"video_embed_code"`
	HasVideo       bool      `json:"has_video"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewCampaignUpdates(updates []domain.CampaignUpdate) []CampaignUpdate {
	result := make([]CampaignUpdate, len(updates))
	for i, u := range updates {
		result[i] = CampaignUpdate{
			ID:             u.ID,
			Title:          u.Title,
			Content:        u.Content,
			ImageURL:       u.ImageURL,
			VideoURL:       u.VideoURL,
			VideoEmbedCode: u.VideoEmbedCode,
			HasVideo:       u.HasVideo(),
			CreatedAt:      u.CreatedAt,
		}
	}

	return result
}
