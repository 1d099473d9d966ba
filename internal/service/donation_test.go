package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattraynor/fundraiser-api/internal/config"
	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/payment"
	"github.com/mattraynor/fundraiser-api/internal/queue"
	"github.com/mattraynor/fundraiser-api/internal/service"
)

type fakeCampaignRepo struct {
	active    domain.Campaign
	activeErr error
	byID      map[uint]domain.Campaign
	tickets   int64
	updates   []domain.CampaignUpdate
}

func (f *fakeCampaignRepo) GetActive(_ context.Context) (domain.Campaign, error) {
	return f.active, f.activeErr
}

func (f *fakeCampaignRepo) GetByID(_ context.Context, id uint) (domain.Campaign, error) {
	c, ok := f.byID[id]
	if !ok {
		return domain.Campaign{}, service.ErrCampaignNotFound
	}

	return c, nil
}

func (f *fakeCampaignRepo) TicketsSold(_ context.Context, _ uint) (int64, error) {
	return f.tickets, nil
}

func (f *fakeCampaignRepo) ListUpdates(_ context.Context, _ uint) ([]domain.CampaignUpdate, error) {
	return f.updates, nil
}

type fakeDonationRepo struct {
	created          []domain.Donation
	attachedSessions map[uint]string

	markCompletedID     uint
	markCompletedIntent string
	completedDonation   domain.Donation
	alreadyCompleted    bool
	markCompletedErr    error

	recent []domain.Donation
}

func (f *fakeDonationRepo) Create(_ context.Context, d domain.Donation) (domain.Donation, error) {
	d.ID = uint(len(f.created) + 1)
	f.created = append(f.created, d)

	return d, nil
}

func (f *fakeDonationRepo) GetByID(_ context.Context, id uint) (domain.Donation, error) {
	for _, d := range f.created {
		if d.ID == id {
			return d, nil
		}
	}

	return domain.Donation{}, service.ErrDonationNotFound
}

func (f *fakeDonationRepo) AttachSessionID(_ context.Context, id uint, sessionID string) error {
	if f.attachedSessions == nil {
		f.attachedSessions = make(map[uint]string)
	}
	f.attachedSessions[id] = sessionID

	return nil
}

func (f *fakeDonationRepo) MarkCompleted(_ context.Context, id uint, paymentIntentID string) (domain.Donation, bool, error) {
	f.markCompletedID = id
	f.markCompletedIntent = paymentIntentID

	return f.completedDonation, f.alreadyCompleted, f.markCompletedErr
}

func (f *fakeDonationRepo) RecentCompleted(_ context.Context, _ int) ([]domain.Donation, error) {
	return f.recent, nil
}

type fakeProvider struct {
	createdParams payment.CheckoutParams
	session       *payment.CheckoutSession
	createErr     error

	event     payment.Event
	verifyErr error
}

func (f *fakeProvider) CreateCheckoutSession(_ context.Context, params payment.CheckoutParams) (*payment.CheckoutSession, error) {
	f.createdParams = params

	return f.session, f.createErr
}

func (f *fakeProvider) RetrieveSession(_ context.Context, _ string) (*payment.CheckoutSession, error) {
	return f.session, nil
}

func (f *fakeProvider) VerifyWebhook(_ []byte, _ string) (payment.Event, error) {
	return f.event, f.verifyErr
}

type fakeTaskQueue struct {
	enqueued   []queue.Task
	enqueueErr error
}

func (f *fakeTaskQueue) Enqueue(_ context.Context, task queue.Task) error {
	f.enqueued = append(f.enqueued, task)

	return f.enqueueErr
}

func newDonationService(repo *fakeDonationRepo, campaigns *fakeCampaignRepo, provider *fakeProvider, tasks *fakeTaskQueue) *service.DonationService {
	return service.NewDonationService(
		repo, campaigns, provider, tasks,
		&config.APIConfig{FrontendURL: "https://donate.example.com"},
		&config.DonationConfig{TicketPriceCents: 5000, Currency: "usd"},
	)
}

func activeCampaign() domain.Campaign {
	return domain.Campaign{
		ID:            7,
		Title:         "New Boat Fund",
		GoalAmount:    decimal.RequireFromString("85000"),
		CurrentAmount: decimal.RequireFromString("1200"),
		IsActive:      true,
	}
}

func TestDonationService_CreateCheckout(t *testing.T) {
	repo := &fakeDonationRepo{}
	campaigns := &fakeCampaignRepo{active: activeCampaign()}
	provider := &fakeProvider{
		session: &payment.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"},
	}
	tasks := &fakeTaskQueue{}
	svc := newDonationService(repo, campaigns, provider, tasks)

	url, err := svc.CreateCheckout(context.Background(), service.CreateDonationInput{
		TicketQuantity: 2,
		DonationAmount: decimal.RequireFromString("25"),
		DonorName:      "Jane Fisher",
		DonorEmail:     "jane@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", url)

	// Two $50 tickets plus a $25 donation.
	require.Len(t, repo.created, 1)
	assert.True(t, repo.created[0].Amount.Equal(decimal.RequireFromString("125")))
	assert.Equal(t, domain.PaymentPending, repo.created[0].PaymentStatus)
	assert.Equal(t, uint(7), repo.created[0].CampaignID)

	require.Len(t, provider.createdParams.LineItems, 2)
	assert.Equal(t, "Event Ticket - New Boat Fund", provider.createdParams.LineItems[0].Name)
	assert.Equal(t, int64(5000), provider.createdParams.LineItems[0].UnitAmountCents)
	assert.Equal(t, int64(2), provider.createdParams.LineItems[0].Quantity)
	assert.Equal(t, "Donation to New Boat Fund", provider.createdParams.LineItems[1].Name)
	assert.Equal(t, int64(2500), provider.createdParams.LineItems[1].UnitAmountCents)

	assert.Equal(t, map[string]string{
		"donation_id":     "1",
		"campaign_id":     "7",
		"amount":          "125.00",
		"ticket_quantity": "2",
		"donor_name":      "Jane Fisher",
		"donor_email":     "jane@example.com",
	}, provider.createdParams.Metadata)

	assert.Equal(t, "https://donate.example.com/success?session_id={CHECKOUT_SESSION_ID}", provider.createdParams.SuccessURL)
	assert.Equal(t, "https://donate.example.com/cancel", provider.createdParams.CancelURL)

	assert.Equal(t, "cs_test_1", repo.attachedSessions[1])
}

func TestDonationService_CreateCheckout_DonationOnly(t *testing.T) {
	repo := &fakeDonationRepo{}
	campaigns := &fakeCampaignRepo{active: activeCampaign()}
	provider := &fakeProvider{session: &payment.CheckoutSession{ID: "cs_test_2", URL: "https://example.com"}}
	svc := newDonationService(repo, campaigns, provider, &fakeTaskQueue{})

	_, err := svc.CreateCheckout(context.Background(), service.CreateDonationInput{
		DonationAmount: decimal.RequireFromString("10"),
	})

	require.NoError(t, err)
	require.Len(t, provider.createdParams.LineItems, 1)
	assert.Equal(t, "Donation to New Boat Fund", provider.createdParams.LineItems[0].Name)
}

func TestDonationService_CreateCheckout_NoActiveCampaign(t *testing.T) {
	campaigns := &fakeCampaignRepo{activeErr: service.ErrNoActiveCampaign}
	svc := newDonationService(&fakeDonationRepo{}, campaigns, &fakeProvider{}, &fakeTaskQueue{})

	_, err := svc.CreateCheckout(context.Background(), service.CreateDonationInput{
		TicketQuantity: 1,
	})

	assert.ErrorIs(t, err, service.ErrNoActiveCampaign)
}

func TestDonationService_CreateCheckout_ProviderFailure(t *testing.T) {
	repo := &fakeDonationRepo{}
	campaigns := &fakeCampaignRepo{active: activeCampaign()}
	provider := &fakeProvider{createErr: errors.New("stripe is down")}
	svc := newDonationService(repo, campaigns, provider, &fakeTaskQueue{})

	_, err := svc.CreateCheckout(context.Background(), service.CreateDonationInput{
		TicketQuantity: 1,
	})

	assert.ErrorIs(t, err, service.ErrPaymentSetup)
	// The pending donation row stays behind but never got a session.
	require.Len(t, repo.created, 1)
	assert.Empty(t, repo.attachedSessions)
}

func completedEvent(metadata map[string]string) payment.Event {
	return payment.Event{
		Type: payment.EventCheckoutCompleted,
		Session: &payment.CheckoutSession{
			ID:              "cs_test_1",
			PaymentIntentID: "pi_123",
			Metadata:        metadata,
		},
	}
}

func TestDonationService_ProcessWebhook(t *testing.T) {
	repo := &fakeDonationRepo{
		completedDonation: domain.Donation{
			ID:         42,
			CampaignID: 7,
			Amount:     decimal.RequireFromString("125"),
		},
	}
	provider := &fakeProvider{event: completedEvent(map[string]string{"donation_id": "42"})}
	tasks := &fakeTaskQueue{}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, tasks)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Equal(t, uint(42), repo.markCompletedID)
	assert.Equal(t, "pi_123", repo.markCompletedIntent)

	require.Len(t, tasks.enqueued, 2)
	assert.Equal(t, queue.TaskThankYouEmail, tasks.enqueued[0].Type)
	assert.Equal(t, queue.TaskOwnerNotification, tasks.enqueued[1].Type)
	assert.Equal(t, uint(42), tasks.enqueued[0].DonationID)
}

func TestDonationService_ProcessWebhook_InvalidSignature(t *testing.T) {
	provider := &fakeProvider{verifyErr: errors.New("bad signature")}
	repo := &fakeDonationRepo{}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, &fakeTaskQueue{})

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "bad")

	assert.ErrorIs(t, err, service.ErrInvalidSignature)
	assert.Zero(t, repo.markCompletedID)
}

func TestDonationService_ProcessWebhook_IgnoresOtherEvents(t *testing.T) {
	provider := &fakeProvider{event: payment.Event{Type: "payment_intent.created"}}
	repo := &fakeDonationRepo{}
	tasks := &fakeTaskQueue{}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, tasks)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Zero(t, repo.markCompletedID)
	assert.Empty(t, tasks.enqueued)
}

func TestDonationService_ProcessWebhook_MissingDonationID(t *testing.T) {
	// Acknowledged without effect; the provider must not keep retrying
	// a delivery that can never be reconciled.
	provider := &fakeProvider{event: completedEvent(map[string]string{})}
	repo := &fakeDonationRepo{}
	tasks := &fakeTaskQueue{}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, tasks)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Zero(t, repo.markCompletedID)
	assert.Empty(t, tasks.enqueued)
}

func TestDonationService_ProcessWebhook_AlreadyCompleted(t *testing.T) {
	repo := &fakeDonationRepo{
		completedDonation: domain.Donation{ID: 42},
		alreadyCompleted:  true,
	}
	provider := &fakeProvider{event: completedEvent(map[string]string{"donation_id": "42"})}
	tasks := &fakeTaskQueue{}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, tasks)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	require.NoError(t, err)
	assert.Empty(t, tasks.enqueued, "duplicate delivery must not re-send emails")
}

func TestDonationService_ProcessWebhook_UnknownDonation(t *testing.T) {
	repo := &fakeDonationRepo{markCompletedErr: service.ErrDonationNotFound}
	provider := &fakeProvider{event: completedEvent(map[string]string{"donation_id": "999"})}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, &fakeTaskQueue{})

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	assert.ErrorIs(t, err, service.ErrDonationNotFound)
}

func TestDonationService_ProcessWebhook_EnqueueFailureStillAcks(t *testing.T) {
	repo := &fakeDonationRepo{completedDonation: domain.Donation{ID: 42, Amount: decimal.Zero}}
	provider := &fakeProvider{event: completedEvent(map[string]string{"donation_id": "42"})}
	tasks := &fakeTaskQueue{enqueueErr: errors.New("redis down")}
	svc := newDonationService(repo, &fakeCampaignRepo{}, provider, tasks)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "sig")

	assert.NoError(t, err, "a full queue must not make the provider retry a completed payment")
}

func TestDonationService_CheckoutResult(t *testing.T) {
	provider := &fakeProvider{
		session: &payment.CheckoutSession{
			ID:          "cs_test_1",
			AmountTotal: 12500,
			Metadata:    map[string]string{"donation_id": "42"},
		},
	}
	svc := newDonationService(&fakeDonationRepo{}, &fakeCampaignRepo{}, provider, &fakeTaskQueue{})

	donationID, amount, err := svc.CheckoutResult(context.Background(), "cs_test_1")

	require.NoError(t, err)
	assert.Equal(t, "42", donationID)
	assert.Equal(t, 125.0, amount)
}
