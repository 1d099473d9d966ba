package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/repository"
)

var (
	ErrNoActiveCampaign = repository.ErrNoActiveCampaign
	ErrCampaignNotFound = repository.ErrCampaignNotFound
)

type CampaignRepository interface {
	GetActive(ctx context.Context) (domain.Campaign, error)
	GetByID(ctx context.Context, id uint) (domain.Campaign, error)
	TicketsSold(ctx context.Context, campaignID uint) (int64, error)
	ListUpdates(ctx context.Context, campaignID uint) ([]domain.CampaignUpdate, error)
}

type CampaignService struct {
	repo CampaignRepository
}

func NewCampaignService(repo CampaignRepository) *CampaignService {
	return &CampaignService{
		repo: repo,
	}
}

// GetActiveCampaign returns the current campaign along with the number
// of event tickets sold through completed donations.
func (s *CampaignService) GetActiveCampaign(ctx context.Context) (domain.Campaign, int64, error) {
	campaign, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveCampaign) {
			return domain.Campaign{}, 0, ErrNoActiveCampaign
		}

		return domain.Campaign{}, 0, fmt.Errorf("s.repo.GetActive -> %w", err)
	}

	ticketsSold, err := s.repo.TicketsSold(ctx, campaign.ID)
	if err != nil {
		return domain.Campaign{}, 0, fmt.Errorf("s.repo.TicketsSold -> %w", err)
	}

	return campaign, ticketsSold, nil
}

// ListActiveUpdates returns the active campaign's updates, newest first.
// No active campaign means no updates, not an error.
func (s *CampaignService) ListActiveUpdates(ctx context.Context) ([]domain.CampaignUpdate, error) {
	campaign, err := s.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveCampaign) {
			return []domain.CampaignUpdate{}, nil
		}

		return nil, fmt.Errorf("s.repo.GetActive -> %w", err)
	}

	updates, err := s.repo.ListUpdates(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("s.repo.ListUpdates -> %w", err)
	}

	return updates, nil
}
