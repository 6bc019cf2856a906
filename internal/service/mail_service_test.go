package service

import (
	"context"
	"testing"

	"agora/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emailRepoStub records stored copies.
type emailRepoStub struct {
	copies []*models.Email
}

func (s *emailRepoStub) CreateCopies(_ context.Context, copies []*models.Email) error {
	s.copies = append(s.copies, copies...)
	return nil
}
func (s *emailRepoStub) Mailbox(_ context.Context, _ uint, mailbox string) ([]models.Email, error) {
	if mailbox != "inbox" {
		return nil, models.NewValidationError("Invalid mailbox.")
	}
	return []models.Email{}, nil
}
func (s *emailRepoStub) GetForOwner(_ context.Context, _, _ uint) (*models.Email, error) {
	return nil, models.NewNotFoundMessage("Email not found.")
}
func (s *emailRepoStub) UpdateFlags(_ context.Context, _, _ uint, _, _ *bool) error {
	return nil
}

func TestParseRecipients(t *testing.T) {
	assert.Equal(t, []string{"a@x.io", "b@y.io"}, parseRecipients(" a@x.io, ,b@y.io, A@x.io "))
	assert.Empty(t, parseRecipients(" , "))
}

func TestMailService_Send(t *testing.T) {
	ctx := context.Background()
	emails := &emailRepoStub{}
	svc := NewMailService(emails, networkUsers())

	_, err := svc.Send(ctx, SendEmailInput{SenderID: 1, Recipients: " , "})
	assertAppError(t, err, models.CodeValidation, "At least one recipient required.")

	_, err = svc.Send(ctx, SendEmailInput{SenderID: 1, Recipients: "bob@example.com, eve@example.com"})
	assertAppError(t, err, models.CodeValidation, "User with email eve@example.com does not exist.")
	assert.Empty(t, emails.copies)

	notify, err := svc.Send(ctx, SendEmailInput{
		SenderID:   1,
		Recipients: "bob@example.com",
		Subject:    "Hi",
		Body:       "Lunch?",
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, notify)

	require.Len(t, emails.copies, 2)
	sender, recipient := emails.copies[0], emails.copies[1]
	assert.Equal(t, uint(1), sender.OwnerID)
	assert.True(t, sender.Read)
	assert.Equal(t, uint(2), recipient.OwnerID)
	assert.False(t, recipient.Read)
	for _, c := range emails.copies {
		assert.Equal(t, uint(1), c.SenderID)
		require.Len(t, c.Recipients, 1)
		assert.Equal(t, "bob@example.com", c.Recipients[0].Email)
	}
}

func TestMailService_MailboxErrors(t *testing.T) {
	svc := NewMailService(&emailRepoStub{}, networkUsers())

	_, err := svc.Mailbox(context.Background(), 1, "spam")
	assertAppError(t, err, models.CodeValidation, "Invalid mailbox.")

	_, err = svc.Get(context.Background(), 5, 1)
	assertAppError(t, err, models.CodeNotFound, "Email not found.")
}
