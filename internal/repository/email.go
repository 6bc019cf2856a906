package repository

import (
	"context"

	"agora/internal/models"

	"gorm.io/gorm"
)

// Mailbox names understood by EmailRepository.Mailbox.
const (
	MailboxInbox   = "inbox"
	MailboxSent    = "sent"
	MailboxArchive = "archive"
)

// EmailRepository defines persistence operations for mail.
type EmailRepository interface {
	// CreateCopies stores every participant's copy of one message atomically.
	CreateCopies(ctx context.Context, copies []*models.Email) error
	Mailbox(ctx context.Context, ownerID uint, mailbox string) ([]models.Email, error)
	GetForOwner(ctx context.Context, id, ownerID uint) (*models.Email, error)
	UpdateFlags(ctx context.Context, id, ownerID uint, read, archived *bool) error
}

type emailRepository struct {
	db *gorm.DB
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) CreateCopies(ctx context.Context, copies []*models.Email) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, email := range copies {
			if err := tx.Omit("Sender", "Recipients.*").Create(email).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *emailRepository) Mailbox(ctx context.Context, ownerID uint, mailbox string) ([]models.Email, error) {
	q := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipients").
		Where("owner_id = ?", ownerID)

	received := r.db.Table("email_recipients").Select("email_id").Where("user_id = ?", ownerID)
	switch mailbox {
	case MailboxInbox:
		q = q.Where("id IN (?) AND archived = ?", received, false)
	case MailboxSent:
		q = q.Where("sender_id = ?", ownerID)
	case MailboxArchive:
		q = q.Where("id IN (?) AND archived = ?", received, true)
	default:
		return nil, models.NewValidationError("Invalid mailbox.")
	}

	emails := []models.Email{}
	if err := q.Order("timestamp DESC, id DESC").Find(&emails).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return emails, nil
}

func (r *emailRepository) GetForOwner(ctx context.Context, id, ownerID uint) (*models.Email, error) {
	var email models.Email
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipients").
		Where("owner_id = ?", ownerID).
		First(&email, id).Error; err != nil {
		return nil, notFoundOr(err, models.NewNotFoundMessage("Email not found."))
	}
	return &email, nil
}

func (r *emailRepository) UpdateFlags(ctx context.Context, id, ownerID uint, read, archived *bool) error {
	updates := map[string]interface{}{}
	if read != nil {
		updates["read"] = *read
	}
	if archived != nil {
		updates["archived"] = *archived
	}

	result := r.db.WithContext(ctx).Model(&models.Email{}).Where("id = ? AND owner_id = ?", id, ownerID)
	if len(updates) == 0 {
		var count int64
		if err := result.Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundMessage("Email not found.")
		}
		return nil
	}

	result = result.Updates(updates)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("Email not found.")
	}
	return nil
}
