package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrTemplateNotFound = errors.New("email template not found")

type EmailTemplate struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;not null;index"`
	Subject     string `gorm:"size:200;not null"`
	HTMLContent string `gorm:"not null"`
	IsActive    bool   `gorm:"not null;default:true"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

type EmailLog struct {
	ID             uint   `gorm:"primaryKey"`
	RecipientEmail string `gorm:"size:254;not null"`
	Subject        string `gorm:"size:200;not null"`
	DonationID     uint   `gorm:"not null;index"`
	Kind           string `gorm:"size:30;not null"`
	WasSent        bool   `gorm:"not null;default:false"`
	SentAt         *time.Time
	CreatedAt      time.Time
}

func (EmailLog) TableName() string {
	return "email_logs"
}

type GORMEmailDAO struct {
	db *gorm.DB
}

func NewEmailDAO(db *gorm.DB) *GORMEmailDAO {
	return &GORMEmailDAO{
		db: db,
	}
}

func (d *GORMEmailDAO) GetActiveTemplate(ctx context.Context, name string) (EmailTemplate, error) {
	var template EmailTemplate

	err := d.db.WithContext(ctx).
		Where("name = ? AND is_active = ?", name, true).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EmailTemplate{}, ErrTemplateNotFound
		}

		return EmailTemplate{}, err
	}

	return template, nil
}

// HasSent reports whether a successful send of the given kind has
// already been logged for the donation.
func (d *GORMEmailDAO) HasSent(ctx context.Context, donationID uint, kind string) (bool, error) {
	var count int64

	err := d.db.WithContext(ctx).
		Model(&EmailLog{}).
		Where("donation_id = ? AND kind = ? AND was_sent = ?", donationID, kind, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (d *GORMEmailDAO) CreateLog(ctx context.Context, log EmailLog) (EmailLog, error) {
	if err := d.db.WithContext(ctx).Create(&log).Error; err != nil {
		return EmailLog{}, err
	}

	return log, nil
}
