package domain

import "time"

// CampaignUpdate is an owner-authored post attached to a campaign -
// text, a photo, or a video blog. Read-only from the donor-facing API.
type CampaignUpdate struct {
	ID             uint      `json:"id"`
	CampaignID     uint      `json:"campaign_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"image_url"`
	VideoURL       string    `json:"video_url"`
	VideoEmbedCode string    `json:"video_embed_code"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *CampaignUpdate) HasVideo() bool {
	return u.VideoURL != "" || u.VideoEmbedCode != ""
}
