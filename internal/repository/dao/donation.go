package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

var (
	ErrDonationNotFound = errors.New("donation not found")
	ErrDuplicateSession = errors.New("checkout session already attached to a donation")
	ErrNotYetCompleted  = errors.New("donation has not been completed")
)

type Donation struct {
	ID                    uint            `gorm:"primaryKey"`
	CampaignID            uint            `gorm:"not null;index"`
	Campaign              Campaign        `gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	Amount                decimal.Decimal `gorm:"type:numeric(8,2);not null"`
	TicketQuantity        int             `gorm:"not null;default:0"`
	DonorName             string          `gorm:"size:100"`
	DonorEmail            string          `gorm:"size:254"`
	IsAnonymous           bool            `gorm:"not null;default:false"`
	Message               string
	StripeSessionID       string `gorm:"size:200;index:uidx_donations_session,unique,where:stripe_session_id <> ''"`
	StripePaymentIntentID string `gorm:"size:200"`
	PaymentStatus         string `gorm:"size:20;not null;default:pending;index"`
	ReceiptSent           bool   `gorm:"not null;default:false"`
	ReceiptSentAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Donation) TableName() string {
	return "donations"
}

type GORMDonationDAO struct {
	db *gorm.DB
}

func NewDonationDAO(db *gorm.DB) *GORMDonationDAO {
	return &GORMDonationDAO{
		db: db,
	}
}

func (d *GORMDonationDAO) Create(ctx context.Context, donation Donation) (Donation, error) {
	if err := d.db.WithContext(ctx).Create(&donation).Error; err != nil {
		return Donation{}, err
	}

	return donation, nil
}

func (d *GORMDonationDAO) GetByID(ctx context.Context, id uint) (Donation, error) {
	var donation Donation

	err := d.db.WithContext(ctx).First(&donation, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Donation{}, ErrDonationNotFound
		}

		return Donation{}, err
	}

	return donation, nil
}

// AttachSessionID records the checkout session created for a pending
// donation. The session id is unique across donations once assigned.
func (d *GORMDonationDAO) AttachSessionID(ctx context.Context, id uint, sessionID string) error {
	err := d.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ?", id).
		Update("stripe_session_id", sessionID).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateSession
		}

		return err
	}

	return nil
}

// MarkCompleted transitions a donation to completed and adds its amount
// to the owning campaign's running total, in one transaction with the
// donation row locked. When the donation is already completed it reports
// alreadyCompleted and changes nothing, which is what makes duplicate
// webhook deliveries safe.
func (d *GORMDonationDAO) MarkCompleted(ctx context.Context, id uint, paymentIntentID string) (donation Donation, alreadyCompleted bool, err error) {
	err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&donation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDonationNotFound
			}

			return err
		}

		if donation.PaymentStatus == PaymentStatusCompleted {
			alreadyCompleted = true
			return nil
		}

		updates := map[string]interface{}{
			"payment_status":           PaymentStatusCompleted,
			"stripe_payment_intent_id": paymentIntentID,
		}
		if err := tx.Model(&donation).Updates(updates).Error; err != nil {
			return err
		}

		// Same transaction as the status flip, so the aggregate can
		// never be observed stale relative to a completed donation.
		return tx.Model(&Campaign{}).
			Where("id = ?", donation.CampaignID).
			UpdateColumn("current_amount", gorm.Expr("current_amount + ?", donation.Amount)).
			Error
	})
	if err != nil {
		return Donation{}, false, err
	}

	return donation, alreadyCompleted, nil
}

func (d *GORMDonationDAO) MarkFailed(ctx context.Context, id uint) error {
	res := d.db.WithContext(ctx).
		Model(&Donation{}).
		Where("id = ? AND payment_status = ?", id, PaymentStatusPending).
		Update("payment_status", PaymentStatusFailed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrDonationNotFound
	}

	return nil
}

// MarkRefunded reverses a completed donation: flips the status and
// subtracts the amount from the campaign total in one transaction.
// Only completed donations can be refunded.
func (d *GORMDonationDAO) MarkRefunded(ctx context.Context, id uint) (Donation, error) {
	var donation Donation

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&donation, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDonationNotFound
			}

			return err
		}

		if donation.PaymentStatus != PaymentStatusCompleted {
			return ErrNotYetCompleted
		}

		if err := tx.Model(&donation).
			Update("payment_status", PaymentStatusRefunded).Error; err != nil {
			return err
		}

		return tx.Model(&Campaign{}).
			Where("id = ?", donation.CampaignID).
			UpdateColumn("current_amount", gorm.Expr("current_amount - ?", donation.Amount)).
			Error
	})
	if err != nil {
		return Donation{}, err
	}

	return donation, nil
}

// RecentCompleted lists the latest publicly visible donations.
func (d *GORMDonationDAO) RecentCompleted(ctx context.Context, limit int) ([]Donation, error) {
	var donations []Donation

	err := d.db.WithContext(ctx).
		Where("payment_status = ? AND is_anonymous = ?", PaymentStatusCompleted, false).
		Order("created_at DESC").
		Limit(limit).
		Find(&donations).Error
	if err != nil {
		return nil, err
	}

	return donations, nil
}
