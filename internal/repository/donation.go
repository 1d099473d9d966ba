package repository

import (
	"context"
	"fmt"

	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/repository/dao"
)

var (
	ErrDonationNotFound = dao.ErrDonationNotFound
	ErrDuplicateSession = dao.ErrDuplicateSession
	ErrNotYetCompleted  = dao.ErrNotYetCompleted
)

type DonationDAO interface {
	Create(ctx context.Context, donation dao.Donation) (dao.Donation, error)
	GetByID(ctx context.Context, id uint) (dao.Donation, error)
	AttachSessionID(ctx context.Context, id uint, sessionID string) error
	MarkCompleted(ctx context.Context, id uint, paymentIntentID string) (dao.Donation, bool, error)
	MarkFailed(ctx context.Context, id uint) error
	MarkRefunded(ctx context.Context, id uint) (dao.Donation, error)
	RecentCompleted(ctx context.Context, limit int) ([]dao.Donation, error)
}

type DonationRepository struct {
	dao DonationDAO
}

func NewDonationRepository(dao DonationDAO) *DonationRepository {
	return &DonationRepository{
		dao: dao,
	}
}

func (r *DonationRepository) Create(ctx context.Context, donation domain.Donation) (domain.Donation, error) {
	created, err := r.dao.Create(ctx, r.domainToDao(donation))
	if err != nil {
		return domain.Donation{}, fmt.Errorf("r.dao.Create -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id uint) (domain.Donation, error) {
	donation, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Donation{}, err
	}

	return r.daoToDomain(donation), nil
}

func (r *DonationRepository) AttachSessionID(ctx context.Context, id uint, sessionID string) error {
	return r.dao.AttachSessionID(ctx, id, sessionID)
}

// MarkCompleted flips the donation to completed and updates the campaign
// total atomically. alreadyCompleted reports an idempotent no-op.
func (r *DonationRepository) MarkCompleted(ctx context.Context, id uint, paymentIntentID string) (donation domain.Donation, alreadyCompleted bool, err error) {
	completed, already, err := r.dao.MarkCompleted(ctx, id, paymentIntentID)
	if err != nil {
		return domain.Donation{}, false, err
	}

	return r.daoToDomain(completed), already, nil
}

func (r *DonationRepository) MarkFailed(ctx context.Context, id uint) error {
	return r.dao.MarkFailed(ctx, id)
}

func (r *DonationRepository) MarkRefunded(ctx context.Context, id uint) (domain.Donation, error) {
	refunded, err := r.dao.MarkRefunded(ctx, id)
	if err != nil {
		return domain.Donation{}, err
	}

	return r.daoToDomain(refunded), nil
}

func (r *DonationRepository) RecentCompleted(ctx context.Context, limit int) ([]domain.Donation, error) {
	donations, err := r.dao.RecentCompleted(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.RecentCompleted -> %w", err)
	}

	result := make([]domain.Donation, len(donations))
	for i, d := range donations {
		result[i] = r.daoToDomain(d)
	}

	return result, nil
}

func (r *DonationRepository) daoToDomain(d dao.Donation) domain.Donation {
	return domain.Donation{
		ID:                    d.ID,
		CampaignID:            d.CampaignID,
		Amount:                d.Amount,
		TicketQuantity:        d.TicketQuantity,
		DonorName:             d.DonorName,
		DonorEmail:            d.DonorEmail,
		IsAnonymous:           d.IsAnonymous,
		Message:               d.Message,
		StripeSessionID:       d.StripeSessionID,
		StripePaymentIntentID: d.StripePaymentIntentID,
		PaymentStatus:         domain.PaymentStatus(d.PaymentStatus),
		ReceiptSent:           d.ReceiptSent,
		ReceiptSentAt:         d.ReceiptSentAt,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}

func (r *DonationRepository) domainToDao(d domain.Donation) dao.Donation {
	return dao.Donation{
		ID:                    d.ID,
		CampaignID:            d.CampaignID,
		Amount:                d.Amount,
		TicketQuantity:        d.TicketQuantity,
		DonorName:             d.DonorName,
		DonorEmail:            d.DonorEmail,
		IsAnonymous:           d.IsAnonymous,
		Message:               d.Message,
		StripeSessionID:       d.StripeSessionID,
		StripePaymentIntentID: d.StripePaymentIntentID,
		PaymentStatus:         string(d.PaymentStatus),
		ReceiptSent:           d.ReceiptSent,
		ReceiptSentAt:         d.ReceiptSentAt,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
}
