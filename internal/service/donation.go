package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mattraynor/fundraiser-api/internal/config"
	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/payment"
	"github.com/mattraynor/fundraiser-api/internal/queue"
	"github.com/mattraynor/fundraiser-api/internal/repository"
)

var (
	ErrDonationNotFound = repository.ErrDonationNotFound
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrPaymentSetup     = errors.New("payment setup failed")
)

const recentDonationsLimit = 10

type DonationRepository interface {
	Create(ctx context.Context, donation domain.Donation) (domain.Donation, error)
	GetByID(ctx context.Context, id uint) (domain.Donation, error)
	AttachSessionID(ctx context.Context, id uint, sessionID string) error
	MarkCompleted(ctx context.Context, id uint, paymentIntentID string) (domain.Donation, bool, error)
	RecentCompleted(ctx context.Context, limit int) ([]domain.Donation, error)
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error)
	RetrieveSession(ctx context.Context, id string) (*payment.CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (payment.Event, error)
}

type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type CreateDonationInput struct {
	TicketQuantity int
	DonationAmount decimal.Decimal
	DonorName      string
	DonorEmail     string
	Message        string
	IsAnonymous    bool
}

type DonationService struct {
	repo         DonationRepository
	campaignRepo CampaignRepository
	provider     PaymentProvider
	tasks        TaskQueue
	frontendURL  string
	ticketPrice  decimal.Decimal
	ticketCents  int64
	currency     string
}

func NewDonationService(
	repo DonationRepository,
	campaignRepo CampaignRepository,
	provider PaymentProvider,
	tasks TaskQueue,
	apiConf *config.APIConfig,
	donationConf *config.DonationConfig,
) *DonationService {
	return &DonationService{
		repo:         repo,
		campaignRepo: campaignRepo,
		provider:     provider,
		tasks:        tasks,
		frontendURL:  apiConf.FrontendURL,
		ticketPrice:  decimal.NewFromInt(donationConf.TicketPriceCents).Div(decimal.NewFromInt(100)),
		ticketCents:  donationConf.TicketPriceCents,
		currency:     donationConf.Currency,
	}
}

// CreateCheckout persists a pending donation and opens a hosted checkout
// session for it. The checkout metadata carries the donation id; it is
// the only join key the webhook reconciler has.
func (s *DonationService) CreateCheckout(ctx context.Context, input CreateDonationInput) (string, error) {
	campaign, err := s.campaignRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrNoActiveCampaign) {
			return "", ErrNoActiveCampaign
		}

		return "", fmt.Errorf("s.campaignRepo.GetActive -> %w", err)
	}

	ticketTotal := s.ticketPrice.Mul(decimal.NewFromInt(int64(input.TicketQuantity)))
	totalAmount := ticketTotal.Add(input.DonationAmount)

	donation, err := s.repo.Create(ctx, domain.Donation{
		CampaignID:     campaign.ID,
		Amount:         totalAmount,
		TicketQuantity: input.TicketQuantity,
		DonorName:      input.DonorName,
		DonorEmail:     input.DonorEmail,
		Message:        input.Message,
		IsAnonymous:    input.IsAnonymous,
		PaymentStatus:  domain.PaymentPending,
	})
	if err != nil {
		return "", fmt.Errorf("s.repo.Create -> %w", err)
	}

	zap.L().Info("created donation",
		zap.Uint("donation_id", donation.ID),
		zap.String("amount", totalAmount.StringFixed(2)),
		zap.Int("ticket_quantity", input.TicketQuantity),
	)

	var lineItems []payment.LineItem
	if input.TicketQuantity > 0 {
		lineItems = append(lineItems, payment.LineItem{
			Name:            "Event Ticket - " + campaign.Title,
			UnitAmountCents: s.ticketCents,
			Quantity:        int64(input.TicketQuantity),
		})
	}
	if input.DonationAmount.IsPositive() {
		lineItems = append(lineItems, payment.LineItem{
			Name:            "Donation to " + campaign.Title,
			UnitAmountCents: input.DonationAmount.Mul(decimal.NewFromInt(100)).IntPart(),
			Quantity:        1,
		})
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, payment.CheckoutParams{
		Currency:   s.currency,
		LineItems:  lineItems,
		SuccessURL: s.frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.frontendURL + "/cancel",
		Metadata: map[string]string{
			"donation_id":     strconv.FormatUint(uint64(donation.ID), 10),
			"campaign_id":     strconv.FormatUint(uint64(campaign.ID), 10),
			"amount":          totalAmount.StringFixed(2),
			"ticket_quantity": strconv.Itoa(input.TicketQuantity),
			"donor_name":      input.DonorName,
			"donor_email":     input.DonorEmail,
		},
	})
	if err != nil {
		// The pending donation stays behind as an orphan; it never
		// counts toward the campaign total.
		zap.L().Error("checkout session creation failed",
			zap.Uint("donation_id", donation.ID),
			zap.Error(err),
		)

		return "", ErrPaymentSetup
	}

	if err := s.repo.AttachSessionID(ctx, donation.ID, sess.ID); err != nil {
		zap.L().Error("failed to attach session id",
			zap.Uint("donation_id", donation.ID),
			zap.String("session_id", sess.ID),
			zap.Error(err),
		)

		return "", ErrPaymentSetup
	}

	zap.L().Info("checkout session created",
		zap.Uint("donation_id", donation.ID),
		zap.String("session_id", sess.ID),
	)

	return sess.URL, nil
}

// ProcessWebhook verifies and applies a payment-provider callback.
// Duplicate deliveries of the same completion event are no-ops; the
// donation transitions to completed at most once.
func (s *DonationService) ProcessWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		zap.L().Warn("webhook signature verification failed", zap.Error(err))

		return ErrInvalidSignature
	}

	zap.L().Info("webhook received", zap.String("type", event.Type))

	if event.Type != payment.EventCheckoutCompleted || event.Session == nil {
		return nil
	}

	rawID, ok := event.Session.Metadata["donation_id"]
	if !ok || rawID == "" {
		// Cannot be reconciled; acknowledged so the provider stops
		// retrying a delivery that can never succeed.
		zap.L().Warn("webhook missing donation_id in metadata",
			zap.String("session_id", event.Session.ID),
		)

		return nil
	}

	donationID, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse donation_id %q -> %w", rawID, err)
	}

	donation, alreadyCompleted, err := s.repo.MarkCompleted(ctx, uint(donationID), event.Session.PaymentIntentID)
	if err != nil {
		if errors.Is(err, ErrDonationNotFound) {
			zap.L().Error("webhook for unknown donation", zap.Uint64("donation_id", donationID))

			return err
		}

		return fmt.Errorf("s.repo.MarkCompleted -> %w", err)
	}

	if alreadyCompleted {
		zap.L().Info("donation already completed, skipping", zap.Uint("donation_id", donation.ID))

		return nil
	}

	zap.L().Info("donation marked completed",
		zap.Uint("donation_id", donation.ID),
		zap.Uint("campaign_id", donation.CampaignID),
		zap.String("amount", donation.Amount.StringFixed(2)),
	)

	// Notification delivery is decoupled from the payment ack; a full
	// queue must not make the provider retry a completed payment.
	for _, taskType := range []string{queue.TaskThankYouEmail, queue.TaskOwnerNotification} {
		task := queue.Task{Type: taskType, DonationID: donation.ID}
		if err := s.tasks.Enqueue(ctx, task); err != nil {
			zap.L().Error("failed to enqueue email task",
				zap.String("task", taskType),
				zap.Uint("donation_id", donation.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// RecentDonations lists the latest completed, non-anonymous donations
// for the public supporters feed.
func (s *DonationService) RecentDonations(ctx context.Context) ([]domain.Donation, error) {
	donations, err := s.repo.RecentCompleted(ctx, recentDonationsLimit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.RecentCompleted -> %w", err)
	}

	return donations, nil
}

// CheckoutResult re-fetches a checkout session so the success page can
// confirm what was paid.
func (s *DonationService) CheckoutResult(ctx context.Context, sessionID string) (donationID string, amount float64, err error) {
	sess, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return "", 0, fmt.Errorf("s.provider.RetrieveSession -> %w", err)
	}

	return sess.Metadata["donation_id"], float64(sess.AmountTotal) / 100, nil
}
