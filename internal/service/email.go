package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"go.uber.org/zap"

	"github.com/mattraynor/fundraiser-api/internal/config"
	"github.com/mattraynor/fundraiser-api/internal/domain"
	"github.com/mattraynor/fundraiser-api/internal/mailer"
	"github.com/mattraynor/fundraiser-api/internal/repository"
)

var ErrTemplateNotFound = repository.ErrTemplateNotFound

type EmailRepository interface {
	GetActiveTemplate(ctx context.Context, name string) (domain.EmailTemplate, error)
	HasSent(ctx context.Context, donationID uint, kind domain.EmailKind) (bool, error)
	LogAttempt(ctx context.Context, log domain.EmailLog) (domain.EmailLog, error)
}

type DonationGetter interface {
	GetByID(ctx context.Context, id uint) (domain.Donation, error)
}

// EmailService renders and sends the two post-donation notifications.
// Both are idempotent through the email log, so a retried task never
// emails anyone twice.
type EmailService struct {
	repo         EmailRepository
	donationRepo DonationGetter
	campaignRepo CampaignRepository
	sender       mailer.Sender
	ownerEmail   string
	ownerName    string
}

func NewEmailService(
	repo EmailRepository,
	donationRepo DonationGetter,
	campaignRepo CampaignRepository,
	sender mailer.Sender,
	apiConf *config.APIConfig,
) *EmailService {
	return &EmailService{
		repo:         repo,
		donationRepo: donationRepo,
		campaignRepo: campaignRepo,
		sender:       sender,
		ownerEmail:   apiConf.OwnerEmail,
		ownerName:    apiConf.OwnerName,
	}
}

// SendThankYou emails the donor after a completed donation. Anonymous
// donations and donations without an email address are skipped silently.
func (s *EmailService) SendThankYou(ctx context.Context, donationID uint) error {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return fmt.Errorf("s.donationRepo.GetByID -> %w", err)
	}

	if donation.IsAnonymous || donation.DonorEmail == "" {
		zap.L().Debug("skipping thank-you email",
			zap.Uint("donation_id", donationID),
			zap.Bool("is_anonymous", donation.IsAnonymous),
		)

		return nil
	}

	sent, err := s.repo.HasSent(ctx, donationID, domain.EmailKindDonorThankYou)
	if err != nil {
		return fmt.Errorf("s.repo.HasSent -> %w", err)
	}
	if sent {
		zap.L().Info("thank-you email already sent", zap.Uint("donation_id", donationID))

		return nil
	}

	campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return fmt.Errorf("s.campaignRepo.GetByID -> %w", err)
	}

	subject, htmlBody := s.renderThankYou(ctx, donation, campaign)
	textBody := s.thankYouText(donation, campaign)

	return s.deliver(ctx, donation.DonorEmail, subject, htmlBody, textBody, domain.EmailLog{
		DonationID: donationID,
		Kind:       domain.EmailKindDonorThankYou,
	})
}

// SendOwnerNotification tells the campaign owner about a completed
// donation. It always sends, regardless of anonymity; the donor is just
// shown as Anonymous.
func (s *EmailService) SendOwnerNotification(ctx context.Context, donationID uint) error {
	donation, err := s.donationRepo.GetByID(ctx, donationID)
	if err != nil {
		return fmt.Errorf("s.donationRepo.GetByID -> %w", err)
	}

	sent, err := s.repo.HasSent(ctx, donationID, domain.EmailKindOwnerNotice)
	if err != nil {
		return fmt.Errorf("s.repo.HasSent -> %w", err)
	}
	if sent {
		zap.L().Info("owner notification already sent", zap.Uint("donation_id", donationID))

		return nil
	}

	campaign, err := s.campaignRepo.GetByID(ctx, donation.CampaignID)
	if err != nil {
		return fmt.Errorf("s.campaignRepo.GetByID -> %w", err)
	}

	donorName := html.EscapeString(donation.DisplayName())
	subject := fmt.Sprintf("New donation: $%v from %v", donation.Amount.StringFixed(2), donation.DisplayName())

	htmlBody := fmt.Sprintf(`<h2>New donation received</h2>
<p><strong>%v</strong> donated <strong>$%v</strong> to %v.</p>`,
		donorName, donation.Amount.StringFixed(2), html.EscapeString(campaign.Title))
	if donation.TicketQuantity > 0 {
		htmlBody += fmt.Sprintf("\n<p>Tickets purchased: %v</p>", donation.TicketQuantity)
	}
	if donation.Message != "" {
		htmlBody += fmt.Sprintf("\n<p>Message: %v</p>", html.EscapeString(donation.Message))
	}
	htmlBody += fmt.Sprintf("\n<p>Campaign total: $%v of $%v (%.1f%%)</p>",
		campaign.CurrentAmount.StringFixed(2), campaign.GoalAmount.StringFixed(2), campaign.ProgressPercentage())

	textBody := fmt.Sprintf(
		"New donation received\n\n%v donated $%v to %v.\nCampaign total: $%v of $%v.\n",
		donation.DisplayName(), donation.Amount.StringFixed(2), campaign.Title,
		campaign.CurrentAmount.StringFixed(2), campaign.GoalAmount.StringFixed(2),
	)

	return s.deliver(ctx, s.ownerEmail, subject, htmlBody, textBody, domain.EmailLog{
		DonationID: donationID,
		Kind:       domain.EmailKindOwnerNotice,
	})
}

// deliver sends the email and records the attempt. Transport failures
// are logged and recorded, then returned so the worker's bounded retry
// can apply; they never reach the webhook acknowledgment path.
func (s *EmailService) deliver(ctx context.Context, to, subject, htmlBody, textBody string, log domain.EmailLog) error {
	log.RecipientEmail = to
	log.Subject = subject

	if err := s.sender.Send(to, subject, htmlBody, textBody); err != nil {
		zap.L().Error("email send failed",
			zap.Uint("donation_id", log.DonationID),
			zap.String("kind", string(log.Kind)),
			zap.Error(err),
		)

		if _, logErr := s.repo.LogAttempt(ctx, log); logErr != nil {
			zap.L().Error("failed to record email attempt", zap.Error(logErr))
		}

		return fmt.Errorf("s.sender.Send -> %w", err)
	}

	now := time.Now()
	log.WasSent = true
	log.SentAt = &now

	if _, err := s.repo.LogAttempt(ctx, log); err != nil {
		zap.L().Error("failed to record email attempt", zap.Error(err))
	}

	zap.L().Info("email sent",
		zap.Uint("donation_id", log.DonationID),
		zap.String("kind", string(log.Kind)),
	)

	return nil
}

func (s *EmailService) renderThankYou(ctx context.Context, donation domain.Donation, campaign domain.Campaign) (subject, htmlBody string) {
	template, err := s.repo.GetActiveTemplate(ctx, domain.TemplateThankYou)
	if err != nil {
		if !errors.Is(err, ErrTemplateNotFound) {
			zap.L().Error("failed to load thank-you template", zap.Error(err))
		}

		return s.thankYouFallback(donation, campaign)
	}

	vars := map[string]string{
		"donor_name":           donorOrFriend(donation),
		"amount":               donation.Amount.StringFixed(2),
		"campaign_title":       campaign.Title,
		"campaign_description": campaign.Description,
		"current_total":        campaign.CurrentAmount.StringFixed(2),
		"goal_amount":          campaign.GoalAmount.StringFixed(2),
		"progress_percentage":  fmt.Sprintf("%.1f", campaign.ProgressPercentage()),
		"donation_date":        donation.CreatedAt.Format("January 2, 2006"),
		"message":              donation.Message,
	}

	subject, htmlBody, err = template.Render(vars)
	if err != nil {
		zap.L().Warn("thank-you template render failed, using fallback", zap.Error(err))

		return s.thankYouFallback(donation, campaign)
	}

	return subject, htmlBody
}

func (s *EmailService) thankYouFallback(donation domain.Donation, campaign domain.Campaign) (subject, htmlBody string) {
	name := donorOrFriend(donation)
	subject = fmt.Sprintf("Thank you for your donation, %v!", name)
	htmlBody = fmt.Sprintf(`<h2>Thank you for your support!</h2>
<p>Dear %v,</p>
<p>Thank you for your generous donation of $%v to %v.</p>
<p>Your support means everything to me.</p>
<p>With gratitude,<br>%v</p>`,
		html.EscapeString(name), donation.Amount.StringFixed(2),
		html.EscapeString(campaign.Title), html.EscapeString(s.ownerName))

	return subject, htmlBody
}

func (s *EmailService) thankYouText(donation domain.Donation, campaign domain.Campaign) string {
	return fmt.Sprintf(
		"Thank you for your donation!\n\nDear %v,\n\nThank you for your generous donation of $%v to %v.\n\nYour support means everything to me.\n\nWith gratitude,\n%v\n",
		donorOrFriend(donation), donation.Amount.StringFixed(2), campaign.Title, s.ownerName,
	)
}

func donorOrFriend(donation domain.Donation) string {
	if donation.DonorName == "" {
		return "Friend"
	}

	return donation.DonorName
}
