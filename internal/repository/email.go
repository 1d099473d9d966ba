package repository

import (
	"context"
	"fmt"

	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/repository/dao"
)

var ErrTemplateNotFound = dao.ErrTemplateNotFound

type EmailDAO interface {
	GetActiveTemplate(ctx context.Context, name string) (dao.EmailTemplate, error)
	HasSent(ctx context.Context, donationID uint, kind string) (bool, error)
	CreateLog(ctx context.Context, log dao.EmailLog) (dao.EmailLog, error)
}

type EmailRepository struct {
	dao EmailDAO
}

func NewEmailRepository(dao EmailDAO) *EmailRepository {
	return &EmailRepository{
		dao: dao,
	}
}

func (r *EmailRepository) GetActiveTemplate(ctx context.Context, name string) (domain.EmailTemplate, error) {
	template, err := r.dao.GetActiveTemplate(ctx, name)
	if err != nil {
		return domain.EmailTemplate{}, err
	}

	return domain.EmailTemplate{
		ID:          template.ID,
		Name:        template.Name,
		Subject:     template.Subject,
		HTMLContent: template.HTMLContent,
		IsActive:    template.IsActive,
	}, nil
}

func (r *EmailRepository) HasSent(ctx context.Context, donationID uint, kind domain.EmailKind) (bool, error) {
	sent, err := r.dao.HasSent(ctx, donationID, string(kind))
	if err != nil {
		return false, fmt.Errorf("r.dao.HasSent -> %w", err)
	}

	return sent, nil
}

func (r *EmailRepository) LogAttempt(ctx context.Context, log domain.EmailLog) (domain.EmailLog, error) {
	created, err := r.dao.CreateLog(ctx, dao.EmailLog{
		RecipientEmail: log.RecipientEmail,
		Subject:        log.Subject,
		DonationID:     log.DonationID,
		Kind:           string(log.Kind),
		WasSent:        log.WasSent,
		SentAt:         log.SentAt,
	})
	if err != nil {
		return domain.EmailLog{}, fmt.Errorf("r.dao.CreateLog -> %w", err)
	}

	log.ID = created.ID
	log.CreatedAt = created.CreatedAt

	return log, nil
}
