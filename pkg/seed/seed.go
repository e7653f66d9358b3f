package seed

import (
	"log"

	"gorm.io/gorm"

	"newsletter_backend/internal/model"
)

// SeedDefaultNewsletter makes sure a fresh install has one list to subscribe
// to.
func SeedDefaultNewsletter(db *gorm.DB) {
	newsletter := model.Newsletter{
		Title:       "General",
		Slug:        "general",
		SiteURL:     "http://localhost:3000",
		SenderEmail: "newsletter@example.com",
		SenderName:  "Newsletter",
		Visible:     true,
		SendHTML:    true,
	}

	result := db.FirstOrCreate(&newsletter, model.Newsletter{Slug: newsletter.Slug})
	if result.Error != nil {
		log.Printf("Error creating default newsletter: %v", result.Error)
		return
	}

	log.Println("Default newsletter seeded successfully!")
}
