package controller

import (
	"log"
	"net/mail"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
)

type SubscriptionInput struct {
	UserID       *uint  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	NewsletterID uint   `json:"newsletter_id" validate:"required"`
	Subscribed   bool   `json:"subscribed"`
	Unsubscribed bool   `json:"unsubscribed"`
}

type BulkActionInput struct {
	IDs []uint `json:"ids" validate:"required"`
}

// statusText mirrors the admin list column: a subscription is subscribed,
// unsubscribed or still waiting for activation.
func statusText(s *model.Subscription) string {
	if s.Subscribed {
		return "Subscribed"
	}
	if s.Unsubscribed {
		return "Unsubscribed"
	}
	return "Unactivated"
}

func ListSubscriptions(c *fiber.Ctx) error {
	type SubscriptionRow struct {
		model.Subscription
		Status string `json:"status"`
	}

	query := database.GetDB().Model(&model.Subscription{}).Preload("User")

	if newsletterID := c.Query("newsletter_id"); newsletterID != "" {
		query = query.Where("newsletter_id = ?", newsletterID)
	}
	if subscribed := c.Query("subscribed"); subscribed != "" {
		query = query.Where("subscribed = ?", subscribed == "true")
	}
	if unsubscribed := c.Query("unsubscribed"); unsubscribed != "" {
		query = query.Where("unsubscribed = ?", unsubscribed == "true")
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("email ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var subscriptions []model.Subscription
	if err := query.Order("created_at DESC").Find(&subscriptions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch subscriptions",
		})
	}

	rows := make([]SubscriptionRow, 0, len(subscriptions))
	for i := range subscriptions {
		rows = append(rows, SubscriptionRow{
			Subscription: subscriptions[i],
			Status:       statusText(&subscriptions[i]),
		})
	}

	return c.JSON(fiber.Map{
		"subscriptions": rows,
		"total":         len(rows),
	})
}

// CreateSubscription adds a subscription through the normal persistence path,
// so a requested subscribed flag gets its date set by the save hook.
func CreateSubscription(c *fiber.Ctx) error {
	input := new(SubscriptionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var newsletter model.Newsletter
	if err := database.GetDB().First(&newsletter, input.NewsletterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Newsletter not found",
		})
	}

	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid email format",
			})
		}
	}

	subscription := model.Subscription{
		UserID:       input.UserID,
		Name:         input.Name,
		Email:        input.Email,
		NewsletterID: input.NewsletterID,
		Subscribed:   input.Subscribed,
		Unsubscribed: input.Unsubscribed,
		IP:           c.IP(),
	}

	if err := database.GetDB().Create(&subscription).Error; err != nil {
		if err == model.ErrNoRecipient || err == model.ErrAmbiguousRecipient {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create subscription",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(subscription)
}

// UpdateSubscription changes the requested flags of one subscription; the
// save hook derives the dates from the transition.
func UpdateSubscription(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid subscription ID",
		})
	}

	var subscription model.Subscription
	if err := database.GetDB().First(&subscription, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Subscription not found",
		})
	}

	var input struct {
		Subscribed   *bool `json:"subscribed"`
		Unsubscribed *bool `json:"unsubscribed"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Subscribed != nil {
		subscription.Subscribed = *input.Subscribed
	}
	if input.Unsubscribed != nil {
		subscription.Unsubscribed = *input.Unsubscribed
	}

	if err := database.GetDB().Save(&subscription).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update subscription",
		})
	}

	return c.JSON(fiber.Map{
		"subscription": subscription,
		"status":       statusText(&subscription),
	})
}

// BulkSubscribe subscribes the selected subscriptions one by one through the
// save hook, so each row gets its subscribe date maintained.
func BulkSubscribe(c *fiber.Ctx) error {
	return bulkAction(c, model.ActionSubscribe)
}

// BulkUnsubscribe unsubscribes the selected subscriptions.
func BulkUnsubscribe(c *fiber.Ctx) error {
	return bulkAction(c, model.ActionUnsubscribe)
}

func bulkAction(c *fiber.Ctx, action string) error {
	input := new(BulkActionInput)
	if err := c.BodyParser(input); err != nil || len(input.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	updated := 0
	for _, id := range input.IDs {
		var subscription model.Subscription
		if err := database.GetDB().First(&subscription, id).Error; err != nil {
			log.Printf("Skipping unknown subscription %d", id)
			continue
		}

		if err := subscription.Update(database.GetDB(), action); err != nil {
			log.Printf("Could not %s subscription %d: %v", action, id, err)
			continue
		}
		updated++
	}

	return c.JSON(fiber.Map{
		"message": strconv.Itoa(updated) + " subscriptions have been successfully updated",
		"updated": updated,
	})
}
