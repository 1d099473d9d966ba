package response

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mattraynor/fundraiser-api/internal/domain"
)

type CheckoutCreated struct {
	CheckoutURL string `json:"checkout_url"`
}

type Donation struct {
	ID             uint            `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	TicketQuantity int             `json:"ticket_quantity"`
	DonorName      string          `json:"donor_name"`
	IsAnonymous    bool            `json:"is_anonymous"`
	Message        string          `json:"message"`
	CreatedAt      time.Time       `json:"created_at"`
}

func NewDonations(donations []domain.Donation) []Donation {
	result := make([]Donation, len(donations))
	for i, d := range donations {
		result[i] = Donation{
			ID:             d.ID,
			Amount:         d.Amount,
			TicketQuantity: d.TicketQuantity,
			DonorName:      d.DonorName,
			IsAnonymous:    d.IsAnonymous,
			Message:        d.Message,
			CreatedAt:      d.CreatedAt,
		}
	}

	return result
}

type WebhookAck struct {
	Status string `json:"status"`
}

type PaymentResult struct {
	Status     string  `json:"status"`
	DonationID string  `json:"donation_id,omitempty"`
	Amount     float64 `json:"amount,omitempty"`
	Message    string  `json:"message,omitempty"`
}
