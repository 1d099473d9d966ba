package dao

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNoActiveCampaign     = errors.New("no active campaign")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrActiveCampaignExists = errors.New("an active campaign already exists")
)

type Campaign struct {
	ID               uint            `gorm:"primaryKey"`
	Title            string          `gorm:"size:200;not null"`
	Description      string          `gorm:"not null"`
	GoalAmount       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	CurrentAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0.00"`
	IsActive         bool            `gorm:"not null;default:true"`
	StartDate        time.Time       `gorm:"not null"`
	EndDate          *time.Time
	FeaturedImage    string
	FeaturedVideoURL string
	Updates          []CampaignUpdate `gorm:"foreignKey:CampaignID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Campaign) TableName() string {
	return "campaigns"
}

type CampaignUpdate struct {
	ID             uint   `gorm:"primaryKey"`
	CampaignID     uint   `gorm:"not null;index"`
	Title          string `gorm:"size:200;not null"`
	Content        string `gorm:"not null"`
	ImageURL       string
	VideoURL       string
	VideoEmbedCode string
	CreatedAt      time.Time
}

func (CampaignUpdate) TableName() string {
	return "campaign_updates"
}

type GORMCampaignDAO struct {
	db *gorm.DB
}

func NewCampaignDAO(db *gorm.DB) *GORMCampaignDAO {
	return &GORMCampaignDAO{
		db: db,
	}
}

// GetActive returns the single active campaign. Uniqueness is enforced
// by a partial index created in InitTables.
func (d *GORMCampaignDAO) GetActive(ctx context.Context) (Campaign, error) {
	var campaign Campaign

	err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrNoActiveCampaign
		}

		return Campaign{}, err
	}

	return campaign, nil
}

func (d *GORMCampaignDAO) GetByID(ctx context.Context, id uint) (Campaign, error) {
	var campaign Campaign

	err := d.db.WithContext(ctx).First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Campaign{}, ErrCampaignNotFound
		}

		return Campaign{}, err
	}

	return campaign, nil
}

func (d *GORMCampaignDAO) Create(ctx context.Context, campaign Campaign) (Campaign, error) {
	err := d.db.WithContext(ctx).Create(&campaign).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return Campaign{}, ErrActiveCampaignExists
		}

		return Campaign{}, err
	}

	return campaign, nil
}

// TicketsSold sums ticket quantities over the campaign's completed donations.
func (d *GORMCampaignDAO) TicketsSold(ctx context.Context, campaignID uint) (int64, error) {
	var total int64

	err := d.db.WithContext(ctx).
		Model(&Donation{}).
		Where("campaign_id = ? AND payment_status = ?", campaignID, PaymentStatusCompleted).
		Select("COALESCE(SUM(ticket_quantity), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (d *GORMCampaignDAO) ListUpdates(ctx context.Context, campaignID uint) ([]CampaignUpdate, error) {
	var updates []CampaignUpdate

	err := d.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at DESC").
		Find(&updates).Error
	if err != nil {
		return nil, err
	}

	return updates, nil
}
