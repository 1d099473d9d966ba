package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mattraynor/fundraiser-api/internal/api/handler/v1/response"
	"github.com/mattraynor/fundraiser-api/internal/service"
)

type WebhookService interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) error
}

// WebhookHandler receives payment-provider callbacks. The caller is the
// provider, not a browser, so the endpoint sits outside the CORS policy
// and relies on signature verification instead.
type WebhookHandler struct {
	svc WebhookService
}

func NewWebhookHandler(svc WebhookService) *WebhookHandler {
	return &WebhookHandler{
		svc: svc,
	}
}

// HandleStripeWebhook godoc
// @Summary      Stripe webhook receiver
// @Description  Verifies and applies asynchronous payment events. Safe under duplicate delivery.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Success      200  {object}  response.WebhookAck
// @Failure      400  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /stripe/webhook [post]
func (h *WebhookHandler) HandleStripeWebhook(ctx *gin.Context) {
	payload, err := ctx.GetRawData()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	signature := ctx.GetHeader("Stripe-Signature")

	err = h.svc.ProcessWebhook(ctx.Request.Context(), payload, signature)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			response.RenderErr(ctx, response.ErrBadRequest(errors.New("Invalid signature")))
			return
		}

		// Non-2xx tells the provider to retry delivery later.
		response.RenderErr(ctx, &response.Err{
			StatusCode: http.StatusInternalServerError,
			Msg:        "Processing failed",
		})
		return
	}

	ctx.JSON(http.StatusOK, response.WebhookAck{Status: "success"})
}
