package controller

import (
	"crypto/subtle"
	"log"
	"net/mail"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
	"newsletter_backend/pkg/email"
)

type SubscribeRequestInput struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"required,email"`
}

func visibleNewsletterBySlug(c *fiber.Ctx) (*model.Newsletter, error) {
	var newsletter model.Newsletter
	err := database.GetDB().
		Where("slug = ? AND visible = ?", c.Params("newsletter_slug"), true).
		First(&newsletter).Error
	if err != nil {
		return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Newsletter not found",
		})
	}
	return &newsletter, nil
}

// SubscribeRequest starts a self-service subscription: a pending record is
// created (or reused) and a confirmation email with the activation link goes
// out. The state only changes once the link is followed.
func SubscribeRequest(c *fiber.Ctx) error {
	newsletter, err := visibleNewsletterBySlug(c)
	if newsletter == nil {
		return err
	}

	input := new(SubscribeRequestInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email format",
		})
	}

	var subscription model.Subscription
	err = database.GetDB().
		Where("newsletter_id = ? AND email = ?", newsletter.ID, input.Email).
		First(&subscription).Error

	switch {
	case err == nil && subscription.Subscribed:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Already subscribed to this newsletter",
		})
	case err == gorm.ErrRecordNotFound:
		subscription = model.Subscription{
			Name:         input.Name,
			Email:        input.Email,
			NewsletterID: newsletter.ID,
			IP:           c.IP(),
		}
		if err := database.GetDB().Create(&subscription).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not create subscription",
			})
		}
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not look up subscription",
		})
	}

	sendActivation(&subscription, newsletter, model.ActionSubscribe)

	return c.JSON(fiber.Map{
		"message": "A confirmation email has been sent",
	})
}

// UnsubscribeRequest mails the unsubscribe confirmation link to an existing
// subscriber.
func UnsubscribeRequest(c *fiber.Ctx) error {
	return activationRequest(c, model.ActionUnsubscribe)
}

// UpdateRequest mails the update confirmation link to an existing subscriber.
func UpdateRequest(c *fiber.Ctx) error {
	return activationRequest(c, model.ActionUpdate)
}

func activationRequest(c *fiber.Ctx, action string) error {
	newsletter, err := visibleNewsletterBySlug(c)
	if newsletter == nil {
		return err
	}

	var input struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	var subscription model.Subscription
	if err := database.GetDB().
		Where("newsletter_id = ? AND email = ?", newsletter.ID, input.Email).
		First(&subscription).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscription found for this email",
		})
	}

	sendActivation(&subscription, newsletter, action)

	return c.JSON(fiber.Map{
		"message": "A confirmation email has been sent",
	})
}

// Activate is the unauthenticated confirmation endpoint behind the links in
// the activation emails. The activation code authorizes the state change.
func Activate(c *fiber.Ctx) error {
	newsletter, err := visibleNewsletterBySlug(c)
	if newsletter == nil {
		return err
	}

	action := c.Params("action")
	if !model.ValidAction(action) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown action",
		})
	}

	emailAddr, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email",
		})
	}

	var subscription model.Subscription
	if err := database.GetDB().
		Where("newsletter_id = ? AND email = ?", newsletter.ID, emailAddr).
		First(&subscription).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No subscription found for this email",
		})
	}

	code := c.Params("code")
	if subtle.ConstantTimeCompare([]byte(code), []byte(subscription.ActivationCode)) != 1 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid activation code",
		})
	}

	if err := subscription.Update(database.GetDB(), action); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update subscription",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Subscription updated",
		"status":  statusText(&subscription),
	})
}

func sendActivation(subscription *model.Subscription, newsletter *model.Newsletter, action string) {
	if email.GlobalEmailService == nil {
		return
	}

	subscription.Newsletter = *newsletter
	if err := email.GlobalEmailService.SendActivationEmail(subscription, action); err != nil {
		log.Printf("Could not send %s activation email to %s: %v",
			action, subscription.SubscriberEmail(), err)
	}
}
