package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/shopspring/decimal"
)

// maxDonationAmount mirrors the ceiling the frontend enforces.
var maxDonationAmount = decimal.NewFromInt(25000)

type CreateDonationRequest struct {
	TicketQuantity int             `json:"ticket_quantity"`
	DonationAmount decimal.Decimal `json:"donation_amount"`
	DonorName      string          `json:"donor_name"`
	DonorEmail     string          `json:"donor_email"`
	Message        string          `json:"message"`
	IsAnonymous    bool            `json:"is_anonymous"`
}

func (req *CreateDonationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.TicketQuantity, validation.Min(0)),
		validation.Field(&req.DonationAmount, validation.By(validDonationAmount)),
		validation.Field(&req.DonorName, validation.Length(0, 100)),
		validation.Field(&req.DonorEmail, is.Email),
		validation.Field(&req.Message, validation.Length(0, 500)),
	)
	if err != nil {
		return err
	}

	if req.TicketQuantity == 0 && !req.DonationAmount.IsPositive() {
		return errors.New("please select at least one ticket or enter a donation amount")
	}

	return nil
}

func validDonationAmount(value interface{}) error {
	amount, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal amount")
	}

	if amount.IsNegative() {
		return errors.New("must not be negative")
	}
	if amount.GreaterThan(maxDonationAmount) {
		return errors.New("must not exceed 25000")
	}

	return nil
}
