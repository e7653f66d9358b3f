package model

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Newsletter struct {
	gorm.Model
	Title string `json:"title" gorm:"not null"`
	Slug  string `json:"slug" gorm:"uniqueIndex;not null"`

	// Base URL of the site this list belongs to, used in activation links.
	SiteURL string `json:"site_url"`

	SenderEmail string `json:"sender_email" gorm:"not null"`
	SenderName  string `json:"sender_name" gorm:"not null"`

	Visible  bool `json:"visible" gorm:"default:true;index"`
	SendHTML bool `json:"send_html" gorm:"default:true"`

	Subscriptions []Subscription `json:"-"`
}

// BeforeCreate derives the slug from the title when none was given. The slug
// is part of template lookups and activation URLs and never changes afterward.
func (n *Newsletter) BeforeCreate(tx *gorm.DB) error {
	if n.Slug == "" {
		s := slug.Make(n.Title)

		var count int64
		tx.Model(&Newsletter{}).Where("slug = ?", s).Count(&count)
		if count > 0 {
			s = s + "-" + n.CreatedAt.Format("20060102")
		}

		n.Slug = s
	}
	return nil
}

// Sender formats the From address for outgoing mail.
func (n *Newsletter) Sender() string {
	return fmt.Sprintf("%s <%s>", n.SenderName, n.SenderEmail)
}

// Subscribers returns all currently subscribed recipients of the newsletter.
func (n *Newsletter) Subscribers(db *gorm.DB) ([]Subscription, error) {
	var subs []Subscription
	err := db.Preload("User").
		Where("newsletter_id = ? AND subscribed = ?", n.ID, true).
		Find(&subs).Error
	return subs, err
}
