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
	"github.com/mattraynor/fundraiser-api/internal/service"
)

type fakeEmailRepo struct {
	template    domain.EmailTemplate
	templateErr error
	sent        map[domain.EmailKind]bool
	logs        []domain.EmailLog
}

func (f *fakeEmailRepo) GetActiveTemplate(_ context.Context, _ string) (domain.EmailTemplate, error) {
	return f.template, f.templateErr
}

func (f *fakeEmailRepo) HasSent(_ context.Context, _ uint, kind domain.EmailKind) (bool, error) {
	return f.sent[kind], nil
}

func (f *fakeEmailRepo) LogAttempt(_ context.Context, log domain.EmailLog) (domain.EmailLog, error) {
	f.logs = append(f.logs, log)

	return log, nil
}

type sentEmail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

type fakeSender struct {
	sent    []sentEmail
	sendErr error
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	if f.sendErr != nil {
		return f.sendErr
	}

	f.sent = append(f.sent, sentEmail{to: to, subject: subject, htmlBody: htmlBody, textBody: textBody})

	return nil
}

func newEmailFixture(donation domain.Donation) (*fakeEmailRepo, *fakeDonationRepo, *fakeCampaignRepo, *fakeSender) {
	emailRepo := &fakeEmailRepo{
		templateErr: service.ErrTemplateNotFound,
		sent:        map[domain.EmailKind]bool{},
	}
	donationRepo := &fakeDonationRepo{created: []domain.Donation{donation}}
	campaignRepo := &fakeCampaignRepo{
		byID: map[uint]domain.Campaign{
			7: {
				ID:            7,
				Title:         "New Boat Fund",
				GoalAmount:    decimal.RequireFromString("85000"),
				CurrentAmount: decimal.RequireFromString("1325"),
			},
		},
	}

	return emailRepo, donationRepo, campaignRepo, &fakeSender{}
}

func newEmailService(emailRepo *fakeEmailRepo, donationRepo *fakeDonationRepo, campaignRepo *fakeCampaignRepo, sender *fakeSender) *service.EmailService {
	return service.NewEmailService(emailRepo, donationRepo, campaignRepo, sender, &config.APIConfig{
		OwnerEmail: "owner@example.com",
		OwnerName:  "Matt Raynor",
	})
}

func completedDonation() domain.Donation {
	return domain.Donation{
		ID:             1,
		CampaignID:     7,
		Amount:         decimal.RequireFromString("125"),
		TicketQuantity: 2,
		DonorName:      "Jane Fisher",
		DonorEmail:     "jane@example.com",
		PaymentStatus:  domain.PaymentCompleted,
	}
}

func TestEmailService_SendThankYou_Fallback(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jane@example.com", sender.sent[0].to)
	assert.Equal(t, "Thank you for your donation, Jane Fisher!", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].htmlBody, "125.00")
	assert.Contains(t, sender.sent[0].textBody, "Jane Fisher")

	require.Len(t, emailRepo.logs, 1)
	assert.True(t, emailRepo.logs[0].WasSent)
	assert.Equal(t, domain.EmailKindDonorThankYou, emailRepo.logs[0].Kind)
	assert.Equal(t, "jane@example.com", emailRepo.logs[0].RecipientEmail)
}

func TestEmailService_SendThankYou_CustomTemplate(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	emailRepo.template = domain.EmailTemplate{
		Name:        domain.TemplateThankYou,
		Subject:     "{{donor_name}}, you are amazing!",
		HTMLContent: "<p>Your ${{amount}} brings {{campaign_title}} to {{progress_percentage}}%.</p>",
	}
	emailRepo.templateErr = nil
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Jane Fisher, you are amazing!", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].htmlBody, "New Boat Fund")
}

func TestEmailService_SendThankYou_BadTemplateFallsBack(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	emailRepo.template = domain.EmailTemplate{
		Subject:     "Thanks {{donor_nickname}}",
		HTMLContent: "<p>Hi</p>",
	}
	emailRepo.templateErr = nil
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Thank you for your donation, Jane Fisher!", sender.sent[0].subject)
}

func TestEmailService_SendThankYou_SkipsAnonymous(t *testing.T) {
	donation := completedDonation()
	donation.IsAnonymous = true
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(donation)
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
	assert.Empty(t, emailRepo.logs)
}

func TestEmailService_SendThankYou_SkipsMissingEmail(t *testing.T) {
	donation := completedDonation()
	donation.DonorEmail = ""
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(donation)
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestEmailService_SendThankYou_AlreadySent(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	emailRepo.sent[domain.EmailKindDonorThankYou] = true
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, sender.sent, "a retried task must not email the donor twice")
}

func TestEmailService_SendThankYou_SendFailureRecorded(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	sender.sendErr = errors.New("smtp connection refused")
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendThankYou(context.Background(), 1)

	require.Error(t, err)
	require.Len(t, emailRepo.logs, 1)
	assert.False(t, emailRepo.logs[0].WasSent)
	assert.Nil(t, emailRepo.logs[0].SentAt)
}

func TestEmailService_SendOwnerNotification(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendOwnerNotification(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "owner@example.com", sender.sent[0].to)
	assert.Contains(t, sender.sent[0].subject, "125.00")
	assert.Contains(t, sender.sent[0].htmlBody, "Jane Fisher")
	assert.Contains(t, sender.sent[0].htmlBody, "Tickets purchased: 2")

	require.Len(t, emailRepo.logs, 1)
	assert.Equal(t, domain.EmailKindOwnerNotice, emailRepo.logs[0].Kind)
}

func TestEmailService_SendOwnerNotification_AnonymousDonor(t *testing.T) {
	donation := completedDonation()
	donation.IsAnonymous = true
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(donation)
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendOwnerNotification(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].htmlBody, "Anonymous")
	assert.NotContains(t, sender.sent[0].htmlBody, "Jane Fisher")
}

func TestEmailService_SendOwnerNotification_AlreadySent(t *testing.T) {
	emailRepo, donationRepo, campaignRepo, sender := newEmailFixture(completedDonation())
	emailRepo.sent[domain.EmailKindOwnerNotice] = true
	svc := newEmailService(emailRepo, donationRepo, campaignRepo, sender)

	err := svc.SendOwnerNotification(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}
