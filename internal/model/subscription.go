package model

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Action tokens accepted by Subscription.Update and the activation emails.
const (
	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
	ActionUpdate      = "update"
)

var (
	ErrNoRecipient        = errors.New("subscription has neither a user nor an email address")
	ErrAmbiguousRecipient = errors.New("subscription has both a user and a standalone email address")
)

// ValidAction reports whether the given action token is one of
// subscribe/update/unsubscribe.
func ValidAction(action string) bool {
	return action == ActionSubscribe || action == ActionUnsubscribe || action == ActionUpdate
}

type Subscription struct {
	gorm.Model
	UserID *uint `json:"user_id" gorm:"uniqueIndex:idx_subscriber_newsletter"`

	// Standalone subscriber identity, used only when no user is linked.
	Name  string `json:"name" gorm:"size:30"`
	Email string `json:"email" gorm:"uniqueIndex:idx_subscriber_newsletter;index"`

	NewsletterID uint   `json:"newsletter_id" gorm:"uniqueIndex:idx_subscriber_newsletter;not null"`
	IP           string `json:"ip"`

	ActivationCode string `json:"-" gorm:"size:40"`

	Subscribed    bool       `json:"subscribed" gorm:"default:false;index"`
	SubscribeDate *time.Time `json:"subscribe_date"`

	Unsubscribed    bool       `json:"unsubscribed" gorm:"default:false;index"`
	UnsubscribeDate *time.Time `json:"unsubscribe_date"`

	User       *User      `json:"-" gorm:"foreignKey:UserID"`
	Newsletter Newsletter `json:"-" gorm:"foreignKey:NewsletterID"`
}

type transition int

const (
	transitionNone transition = iota
	transitionSubscribe
	transitionUnsubscribe
)

// resolveTransition compares the stored flags against the requested ones and
// returns the resulting state change. New records pass false/false as the old
// flags. Re-entering the current state yields transitionNone, so timestamps
// are only touched when a state is actually entered.
func resolveTransition(oldSubscribed, oldUnsubscribed, newSubscribed, newUnsubscribed bool) transition {
	switch {
	case (newSubscribed && !oldSubscribed) || (oldUnsubscribed && !newUnsubscribed):
		return transitionSubscribe
	case (newUnsubscribed && !oldUnsubscribed) || (oldSubscribed && !newSubscribed):
		return transitionUnsubscribe
	default:
		return transitionNone
	}
}

func (s *Subscription) markSubscribed(now time.Time) {
	s.Subscribed = true
	s.Unsubscribed = false
	s.SubscribeDate = &now
}

func (s *Subscription) markUnsubscribed(now time.Time) {
	s.Subscribed = false
	s.Unsubscribed = true
	s.UnsubscribeDate = &now
}

// BeforeSave validates the subscriber identity and applies the state
// transition implied by the requested flags. The previous flags are re-read
// through the save transaction, never from a cached copy.
func (s *Subscription) BeforeSave(tx *gorm.DB) error {
	if s.UserID == nil && s.Email == "" {
		return ErrNoRecipient
	}
	if s.UserID != nil && s.Email != "" {
		return ErrAmbiguousRecipient
	}

	if s.ActivationCode == "" {
		s.ActivationCode = makeActivationCode()
	}

	now := time.Now()

	oldSubscribed, oldUnsubscribed := false, false
	if s.ID != 0 {
		var prev []Subscription
		err := tx.Session(&gorm.Session{NewDB: true}).
			Limit(2).Find(&prev, "id = ?", s.ID).Error
		if err != nil {
			return err
		}
		if len(prev) != 1 {
			return fmt.Errorf("subscription %d resolves to %d rows", s.ID, len(prev))
		}
		oldSubscribed = prev[0].Subscribed
		oldUnsubscribed = prev[0].Unsubscribed
	}

	switch resolveTransition(oldSubscribed, oldUnsubscribed, s.Subscribed, s.Unsubscribed) {
	case transitionSubscribe:
		s.markSubscribed(now)
	case transitionUnsubscribe:
		s.markUnsubscribed(now)
	}

	if s.Subscribed && s.Unsubscribed {
		return fmt.Errorf("subscription %d ended up both subscribed and unsubscribed", s.ID)
	}

	return nil
}

// Update applies one of the subscribe/update/unsubscribe actions and saves
// through the normal persistence path, so BeforeSave maintains the dates.
func (s *Subscription) Update(db *gorm.DB, action string) error {
	switch action {
	case ActionSubscribe, ActionUpdate:
		s.Subscribed = true
	case ActionUnsubscribe:
		s.Unsubscribed = true
	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	log.Printf("Updating subscription %d to %s", s.ID, action)

	return db.Save(s).Error
}

// SubscriberName returns the linked user's full name when present, else the
// standalone name field.
func (s *Subscription) SubscriberName() string {
	if s.User != nil {
		return s.User.FullName()
	}
	return s.Name
}

// SubscriberEmail returns the linked user's email when present, else the
// standalone email field.
func (s *Subscription) SubscriberEmail() string {
	if s.User != nil {
		return s.User.Email
	}
	return s.Email
}

// Recipient formats the destination address for outgoing email.
func (s *Subscription) Recipient() string {
	if name := s.SubscriberName(); name != "" {
		return fmt.Sprintf("%s <%s>", name, s.SubscriberEmail())
	}
	return s.SubscriberEmail()
}

func (s *Subscription) SubscribeActivateURL() string {
	return s.activateURL(ActionSubscribe)
}

func (s *Subscription) UnsubscribeActivateURL() string {
	return s.activateURL(ActionUnsubscribe)
}

func (s *Subscription) UpdateActivateURL() string {
	return s.activateURL(ActionUpdate)
}

// activateURL builds the unauthenticated confirmation link for an action.
// Requires the Newsletter association to be loaded.
func (s *Subscription) activateURL(action string) string {
	return fmt.Sprintf("%s/newsletter/%s/activate/%s/%s/%s/",
		strings.TrimRight(s.Newsletter.SiteURL, "/"),
		s.Newsletter.Slug,
		action,
		url.PathEscape(s.SubscriberEmail()),
		s.ActivationCode,
	)
}

// makeActivationCode returns a 40 character hex token authorizing
// unauthenticated state-change confirmation for this subscription.
func makeActivationCode() string {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is not recoverable
	}
	return hex.EncodeToString(buf)
}
