// pkg/cron/draft_expiry.go

package cron

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
)

// InitDraftExpiryCron prunes import drafts that were never confirmed.
func InitDraftExpiryCron() {
	c := cron.New()

	_, err := c.AddFunc("@hourly", func() {
		pruneExpiredDrafts()
	})

	if err != nil {
		log.Printf("Could not initialize draft expiry cron: %v", err)
		return
	}

	c.Start()
}

func pruneExpiredDrafts() {
	result := database.DB.
		Where("expires_at < ?", time.Now()).
		Delete(&model.ImportDraft{})

	if result.Error != nil {
		log.Printf("Error pruning expired import drafts: %v", result.Error)
		return
	}

	if result.RowsAffected > 0 {
		log.Printf("Pruned %d expired import drafts", result.RowsAffected)
	}
}
