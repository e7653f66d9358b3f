package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DraftTTL is how long a parsed address list stays confirmable.
const DraftTTL = 30 * time.Minute

// ImportDraft holds the parsed address mapping between the upload and confirm
// steps of a bulk import. The draft is addressed by an opaque token instead of
// ambient session state and expires if never confirmed.
type ImportDraft struct {
	gorm.Model
	Token        string         `json:"token" gorm:"uniqueIndex;size:36;not null"`
	UserID       uint           `json:"user_id"`
	NewsletterID uint           `json:"newsletter_id" gorm:"not null"`
	Addresses    datatypes.JSON `json:"-"`
	ExpiresAt    time.Time      `json:"expires_at" gorm:"index"`

	Newsletter Newsletter `json:"-" gorm:"foreignKey:NewsletterID"`
}

// NewImportDraft wraps a parsed email-to-name mapping into a draft row.
func NewImportDraft(userID, newsletterID uint, addresses map[string]string) (*ImportDraft, error) {
	raw, err := json.Marshal(addresses)
	if err != nil {
		return nil, err
	}

	return &ImportDraft{
		Token:        uuid.NewString(),
		UserID:       userID,
		NewsletterID: newsletterID,
		Addresses:    datatypes.JSON(raw),
		ExpiresAt:    time.Now().Add(DraftTTL),
	}, nil
}

// AddressMap decodes the stored email-to-name mapping.
func (d *ImportDraft) AddressMap() (map[string]string, error) {
	addresses := make(map[string]string)
	if err := json.Unmarshal(d.Addresses, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (d *ImportDraft) Expired() bool {
	return time.Now().After(d.ExpiresAt)
}
