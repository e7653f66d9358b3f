// pkg/cron/submission_sender.go

package cron

import (
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
	"newsletter_backend/pkg/email"
)

var sendMutex sync.Mutex

// InitSubmissionCron starts the loop that delivers prepared submissions once
// their send date has passed.
func InitSubmissionCron() {
	c := cron.New()

	_, err := c.AddFunc("* * * * *", func() {
		sendMutex.Lock()
		defer sendMutex.Unlock()

		processDueSubmissions()
	})

	if err != nil {
		log.Printf("Could not initialize submission cron: %v", err)
		return
	}

	c.Start()
	log.Printf("Submission cron initialized successfully")
}

func processDueSubmissions() {
	now := time.Now()

	var submissions []model.Submission
	err := database.DB.
		Where("prepared = ? AND sent = ?", true, false).
		Where("send_date IS NULL OR send_date <= ?", now).
		Preload("Message").
		Preload("Message.Images").
		Preload("Newsletter").
		Find(&submissions).Error

	if err != nil {
		log.Printf("Error fetching due submissions: %v", err)
		return
	}

	for i := range submissions {
		sendSubmission(&submissions[i])
	}
}

func sendSubmission(submission *model.Submission) {
	log.Printf("Sending submission %d for newsletter %s", submission.ID, submission.Newsletter.Slug)

	recipients, err := submission.Newsletter.Subscribers(database.DB)
	if err != nil {
		log.Printf("Error fetching subscribers for submission %d: %v", submission.ID, err)
		return
	}

	sent := 0
	for i := range recipients {
		if email.GlobalEmailService == nil {
			break
		}

		recipients[i].Newsletter = submission.Newsletter
		if err := email.GlobalEmailService.SendMessageEmail(&recipients[i], &submission.Message); err != nil {
			log.Printf("Error sending submission %d to %s: %v",
				submission.ID, recipients[i].SubscriberEmail(), err)
			continue
		}
		sent++
	}

	now := time.Now()
	err = database.DB.Model(submission).
		Updates(map[string]interface{}{"sent": true, "sent_date": now}).Error
	if err != nil {
		log.Printf("Error marking submission %d as sent: %v", submission.ID, err)
		return
	}

	log.Printf("Submission %d sent to %d of %d subscribers", submission.ID, sent, len(recipients))
}
