package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mattraynor/fundraiser-api/internal/api/handler/v1/response"
	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/service"
)

type CampaignService interface {
	GetActiveCampaign(ctx context.Context) (domain.Campaign, int64, error)
	ListActiveUpdates(ctx context.Context) ([]domain.CampaignUpdate, error)
}

type CampaignHandler struct {
	svc CampaignService
}

func NewCampaignHandler(svc CampaignService) *CampaignHandler {
	return &CampaignHandler{
		svc: svc,
	}
}

// HandleGetCampaign godoc
// @Summary      Get the current campaign
// @Description  Retrieves the active fundraising campaign with its progress and tickets sold
// @Tags         campaign
// @Produce      json
// @Success      200  {object}  response.Campaign
// @Failure      404  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /campaign [get]
func (h *CampaignHandler) HandleGetCampaign(ctx *gin.Context) {
	campaign, ticketsSold, err := h.svc.GetActiveCampaign(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoActiveCampaign) {
			response.RenderErr(ctx, response.ErrNotFound("No active campaign"))
			return
		}

		err = fmt.Errorf("HandleGetCampaign -> h.svc.GetActiveCampaign -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewCampaign(campaign, ticketsSold))
}

// HandleGetUpdates godoc
// @Summary      List campaign updates
// @Description  Retrieves updates posted to the active campaign, newest first
// @Tags         campaign
// @Produce      json
// @Success      200  {array}   response.CampaignUpdate
// @Failure      500  {object}  response.Err
// @Router       /campaign/updates [get]
func (h *CampaignHandler) HandleGetUpdates(ctx *gin.Context) {
	updates, err := h.svc.ListActiveUpdates(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleGetUpdates -> h.svc.ListActiveUpdates -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewCampaignUpdates(updates))
}
