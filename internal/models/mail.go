package models

import (
	"time"
)

// Email is one participant's copy of a message. Sending to N recipients
// stores N+1 rows, one owned by each recipient and one by the sender.
type Email struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OwnerID    uint      `gorm:"not null;index" json:"-"`
	SenderID   uint      `gorm:"not null;index" json:"-"`
	Recipients []User    `gorm:"many2many:email_recipients" json:"-"`
	Subject    string    `gorm:"size:255" json:"subject"`
	Body       string    `gorm:"type:text" json:"body"`
	Read       bool      `gorm:"not null;default:false" json:"read"`
	Archived   bool      `gorm:"not null;default:false" json:"archived"`
	Timestamp  time.Time `gorm:"not null;index;autoCreateTime" json:"-"`

	Sender User `gorm:"foreignKey:SenderID" json:"-"`
}

// EmailView is the serialized form of an email.
type EmailView struct {
	ID         uint     `json:"id"`
	Sender     string   `json:"sender"`
	Recipients []string `json:"recipients"`
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Timestamp  string   `json:"timestamp"`
	Read       bool     `json:"read"`
	Archived   bool     `json:"archived"`
}

// View serializes the email with participant addresses.
func (e *Email) View() EmailView {
	recipients := make([]string, 0, len(e.Recipients))
	for _, r := range e.Recipients {
		recipients = append(recipients, r.Email)
	}
	return EmailView{
		ID:         e.ID,
		Sender:     e.Sender.Email,
		Recipients: recipients,
		Subject:    e.Subject,
		Body:       e.Body,
		Timestamp:  e.Timestamp.Format(PostTimestampLayout),
		Read:       e.Read,
		Archived:   e.Archived,
	}
}
