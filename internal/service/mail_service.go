package service

import (
	"context"
	"fmt"
	"strings"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
)

const maxSubjectLen = 255

type SendEmailInput struct {
	SenderID   uint
	Recipients string
	Subject    string
	Body       string
}

type UpdateEmailInput struct {
	EmailID  uint
	OwnerID  uint
	Read     *bool
	Archived *bool
}

// MailService delivers messages by giving every participant their own copy.
type MailService struct {
	emailRepo repository.EmailRepository
	userRepo  repository.UserRepository
}

func NewMailService(emailRepo repository.EmailRepository, userRepo repository.UserRepository) *MailService {
	return &MailService{emailRepo: emailRepo, userRepo: userRepo}
}

// parseRecipients splits a comma separated address list, dropping blanks and
// repeated addresses while keeping the original order.
func parseRecipients(raw string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(raw, ",") {
		addr := strings.TrimSpace(part)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// Send stores one copy per participant and returns the recipients' user ids.
// The sender's copy starts out read.
func (s *MailService) Send(ctx context.Context, in SendEmailInput) ([]uint, error) {
	addresses := parseRecipients(in.Recipients)
	if len(addresses) == 0 {
		return nil, models.NewValidationError("At least one recipient required.")
	}
	if len(in.Subject) > maxSubjectLen {
		return nil, models.NewValidationError(fmt.Sprintf("subject must not exceed %d characters", maxSubjectLen))
	}

	sender, err := s.userRepo.GetByID(ctx, in.SenderID)
	if err != nil {
		return nil, err
	}

	found, err := s.userRepo.GetByEmails(ctx, addresses)
	if err != nil {
		return nil, err
	}
	byEmail := make(map[string]models.User, len(found))
	for _, u := range found {
		byEmail[strings.ToLower(u.Email)] = u
	}

	recipients := make([]models.User, 0, len(addresses))
	for _, addr := range addresses {
		u, ok := byEmail[strings.ToLower(addr)]
		if !ok {
			return nil, models.NewValidationError(fmt.Sprintf("User with email %s does not exist.", addr))
		}
		recipients = append(recipients, u)
	}

	owners := []uint{sender.ID}
	for _, r := range recipients {
		if r.ID != sender.ID {
			owners = append(owners, r.ID)
		}
	}

	copies := make([]*models.Email, 0, len(owners))
	for _, ownerID := range owners {
		copies = append(copies, &models.Email{
			OwnerID:    ownerID,
			SenderID:   sender.ID,
			Recipients: recipients,
			Subject:    in.Subject,
			Body:       in.Body,
			Read:       ownerID == sender.ID,
		})
	}
	if err := s.emailRepo.CreateCopies(ctx, copies); err != nil {
		return nil, err
	}
	observability.EmailsSent.Inc()

	return owners[1:], nil
}

func (s *MailService) Mailbox(ctx context.Context, ownerID uint, mailbox string) ([]models.EmailView, error) {
	emails, err := s.emailRepo.Mailbox(ctx, ownerID, mailbox)
	if err != nil {
		return nil, err
	}
	views := make([]models.EmailView, 0, len(emails))
	for i := range emails {
		views = append(views, emails[i].View())
	}
	return views, nil
}

func (s *MailService) Get(ctx context.Context, id, ownerID uint) (*models.EmailView, error) {
	email, err := s.emailRepo.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	view := email.View()
	return &view, nil
}

func (s *MailService) Update(ctx context.Context, in UpdateEmailInput) error {
	return s.emailRepo.UpdateFlags(ctx, in.EmailID, in.OwnerID, in.Read, in.Archived)
}
