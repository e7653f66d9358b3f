package model

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Message is the content of one newsletter mailing.
type Message struct {
	gorm.Model
	NewsletterID uint   `json:"newsletter_id" gorm:"uniqueIndex:idx_newsletter_message_slug;not null"`
	Title        string `json:"title" gorm:"not null"`
	Slug         string `json:"slug" gorm:"uniqueIndex:idx_newsletter_message_slug;not null"`
	Body         string `json:"body" gorm:"type:text"`

	Newsletter Newsletter     `json:"-" gorm:"foreignKey:NewsletterID"`
	Images     []MessageImage `json:"images" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Slug == "" {
		m.Slug = slug.Make(m.Title)
	}
	return nil
}

type MessageImage struct {
	gorm.Model
	MessageID uint   `json:"message_id"`
	URL       string `json:"url" gorm:"not null"`
	Order     int    `json:"order" gorm:"default:0"`

	Message Message `json:"-" gorm:"foreignKey:MessageID"`
}

// Submission queues a message for delivery to everyone subscribed to the
// newsletter at send time.
type Submission struct {
	gorm.Model
	MessageID    uint `json:"message_id" gorm:"not null"`
	NewsletterID uint `json:"newsletter_id" gorm:"not null"`

	Prepared bool       `json:"prepared" gorm:"default:false;index"`
	Sent     bool       `json:"sent" gorm:"default:false;index"`
	SendDate *time.Time `json:"send_date"`
	SentDate *time.Time `json:"sent_date"`

	Message    Message    `json:"message" gorm:"foreignKey:MessageID"`
	Newsletter Newsletter `json:"-" gorm:"foreignKey:NewsletterID"`
}

// Due reports whether the submission should be picked up by the send loop.
func (s *Submission) Due(now time.Time) bool {
	if !s.Prepared || s.Sent {
		return false
	}
	return s.SendDate == nil || !s.SendDate.After(now)
}
