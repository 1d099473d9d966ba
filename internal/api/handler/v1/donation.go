package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mattraynor/fundraiser-api/internal/api/handler/v1/request"
	"github.com/mattraynor/fundraiser-api/internal/api/handler/v1/response"
	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/service"
)

type DonationService interface {
	CreateCheckout(ctx context.Context, input service.CreateDonationInput) (string, error)
	RecentDonations(ctx context.Context) ([]domain.Donation, error)
	CheckoutResult(ctx context.Context, sessionID string) (string, float64, error)
}

type DonationHandler struct {
	svc DonationService
}

func NewDonationHandler(svc DonationService) *DonationHandler {
	return &DonationHandler{
		svc: svc,
	}
}

// HandleCreateDonation godoc
// @Summary      Create a donation checkout
// @Description  Creates a pending donation and a hosted checkout session, returning the checkout URL
// @Tags         donations
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateDonationRequest  true  "Donation details"
// @Success      200    {object}  response.CheckoutCreated
// @Failure      400    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Failure      429    {object}  response.Err
// @Failure      500    {object}  response.Err
// @Router       /donations [post]
func (h *DonationHandler) HandleCreateDonation(ctx *gin.Context) {
	var req request.CreateDonationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrValidation(err))
		return
	}

	checkoutURL, err := h.svc.CreateCheckout(ctx.Request.Context(), service.CreateDonationInput{
		TicketQuantity: req.TicketQuantity,
		DonationAmount: req.DonationAmount,
		DonorName:      req.DonorName,
		DonorEmail:     req.DonorEmail,
		Message:        req.Message,
		IsAnonymous:    req.IsAnonymous,
	})
	if err != nil {
		if errors.Is(err, service.ErrNoActiveCampaign) {
			response.RenderErr(ctx, response.ErrNotFound("No active campaign"))
			return
		}
		if errors.Is(err, service.ErrPaymentSetup) {
			response.RenderErr(ctx, &response.Err{
				StatusCode: http.StatusInternalServerError,
				Msg:        "Payment setup failed",
			})
			return
		}

		err = fmt.Errorf("HandleCreateDonation -> h.svc.CreateCheckout -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.CheckoutCreated{CheckoutURL: checkoutURL})
}

// HandleRecentDonations godoc
// @Summary      List recent donations
// @Description  Retrieves the most recent completed, non-anonymous donations
// @Tags         donations
// @Produce      json
// @Success      200  {array}   response.Donation
// @Failure      500  {object}  response.Err
// @Router       /donations/recent [get]
func (h *DonationHandler) HandleRecentDonations(ctx *gin.Context) {
	donations, err := h.svc.RecentDonations(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("HandleRecentDonations -> h.svc.RecentDonations -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewDonations(donations))
}

// HandlePaymentSuccess godoc
// @Summary      Payment success redirect target
// @Description  Confirms the checkout session referenced by session_id and reports the paid amount
// @Tags         donations
// @Produce      json
// @Param        session_id  query     string  false  "Checkout session id"
// @Success      200         {object}  response.PaymentResult
// @Router       /donations/success [get]
func (h *DonationHandler) HandlePaymentSuccess(ctx *gin.Context) {
	sessionID := ctx.Query("session_id")
	if sessionID == "" {
		ctx.JSON(http.StatusOK, response.PaymentResult{Status: "success"})
		return
	}

	donationID, amount, err := h.svc.CheckoutResult(ctx.Request.Context(), sessionID)
	if err != nil {
		// The payment already went through; this endpoint only adds
		// confirmation detail, so it degrades rather than failing.
		ctx.JSON(http.StatusOK, response.PaymentResult{Status: "success"})
		return
	}

	ctx.JSON(http.StatusOK, response.PaymentResult{
		Status:     "success",
		DonationID: donationID,
		Amount:     amount,
	})
}

// HandlePaymentCancel godoc
// @Summary      Payment cancel redirect target
// @Tags         donations
// @Produce      json
// @Success      200  {object}  response.PaymentResult
// @Router       /donations/cancel [get]
func (h *DonationHandler) HandlePaymentCancel(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.PaymentResult{
		Status:  "cancelled",
		Message: "Payment was cancelled",
	})
}
