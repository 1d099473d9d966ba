package repository

import (
	"context"
	"fmt"

	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/repository/dao"
)

var (
	ErrNoActiveCampaign     = dao.ErrNoActiveCampaign
	ErrCampaignNotFound     = dao.ErrCampaignNotFound
	ErrActiveCampaignExists = dao.ErrActiveCampaignExists
)

type CampaignDAO interface {
	GetActive(ctx context.Context) (dao.Campaign, error)
	GetByID(ctx context.Context, id uint) (dao.Campaign, error)
	Create(ctx context.Context, campaign dao.Campaign) (dao.Campaign, error)
	TicketsSold(ctx context.Context, campaignID uint) (int64, error)
	ListUpdates(ctx context.Context, campaignID uint) ([]dao.CampaignUpdate, error)
}

type CampaignRepository struct {
	dao CampaignDAO
}

func NewCampaignRepository(dao CampaignDAO) *CampaignRepository {
	return &CampaignRepository{
		dao: dao,
	}
}

func (r *CampaignRepository) GetActive(ctx context.Context) (domain.Campaign, error) {
	campaign, err := r.dao.GetActive(ctx)
	if err != nil {
		return domain.Campaign{}, err
	}

	return r.daoToDomain(campaign), nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uint) (domain.Campaign, error) {
	campaign, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Campaign{}, err
	}

	return r.daoToDomain(campaign), nil
}

func (r *CampaignRepository) Create(ctx context.Context, campaign domain.Campaign) (domain.Campaign, error) {
	created, err := r.dao.Create(ctx, r.domainToDao(campaign))
	if err != nil {
		return domain.Campaign{}, err
	}

	return r.daoToDomain(created), nil
}

func (r *CampaignRepository) TicketsSold(ctx context.Context, campaignID uint) (int64, error) {
	total, err := r.dao.TicketsSold(ctx, campaignID)
	if err != nil {
		return 0, fmt.Errorf("r.dao.TicketsSold -> %w", err)
	}

	return total, nil
}

func (r *CampaignRepository) ListUpdates(ctx context.Context, campaignID uint) ([]domain.CampaignUpdate, error) {
	updates, err := r.dao.ListUpdates(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListUpdates -> %w", err)
	}

	result := make([]domain.CampaignUpdate, len(updates))
	for i, u := range updates {
		result[i] = domain.CampaignUpdate{
			ID:             u.ID,
			CampaignID:     u.CampaignID,
			Title:          u.Title,
			Content:        u.Content,
			ImageURL:       u.ImageURL,
			VideoURL:       u.VideoURL,
			VideoEmbedCode: u.VideoEmbedCode,
			CreatedAt:      u.CreatedAt,
		}
	}

	return result, nil
}

func (r *CampaignRepository) daoToDomain(c dao.Campaign) domain.Campaign {
	return domain.Campaign{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		GoalAmount:       c.GoalAmount,
		CurrentAmount:    c.CurrentAmount,
		IsActive:         c.IsActive,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		FeaturedImage:    c.FeaturedImage,
		FeaturedVideoURL: c.FeaturedVideoURL,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func (r *CampaignRepository) domainToDao(c domain.Campaign) dao.Campaign {
	return dao.Campaign{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		GoalAmount:       c.GoalAmount,
		CurrentAmount:    c.CurrentAmount,
		IsActive:         c.IsActive,
		StartDate:        c.StartDate,
		EndDate:          c.EndDate,
		FeaturedImage:    c.FeaturedImage,
		FeaturedVideoURL: c.FeaturedVideoURL,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}
