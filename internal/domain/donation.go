package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type Donation struct {
	ID                    uint            `json:"id"`
	CampaignID            uint            `json:"campaign_id"`
	Amount                decimal.Decimal `json:"amount"`
	TicketQuantity        int             `json:"ticket_quantity"`
	DonorName             string          `json:"donor_name"`
	DonorEmail            string          `json:"donor_email"`
	IsAnonymous           bool            `json:"is_anonymous"`
	Message               string          `json:"message"`
	StripeSessionID       string          `json:"-"`
	StripePaymentIntentID string          `json:"-"`
	PaymentStatus         PaymentStatus   `json:"payment_status"`
	ReceiptSent           bool            `json:"-"`
	ReceiptSentAt         *time.Time      `json:"-"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// DisplayName is the name shown publicly and in owner notifications.
func (d *Donation) DisplayName() string {
	if d.IsAnonymous || d.DonorName == "" {
		return "Anonymous"
	}

	return d.DonorName
}

// CountsTowardTotal reports whether this donation contributes to the
// campaign's current amount. Only completed payments do.
func (d *Donation) CountsTowardTotal() bool {
	return d.PaymentStatus == PaymentCompleted
}
