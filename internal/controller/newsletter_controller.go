package controller

import (
	"net/mail"

	"github.com/gofiber/fiber/v2"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
)

type NewsletterInput struct {
	Title       string `json:"title" validate:"required"`
	Slug        string `json:"slug"`
	SiteURL     string `json:"site_url"`
	SenderEmail string `json:"sender_email" validate:"required,email"`
	SenderName  string `json:"sender_name" validate:"required"`
	Visible     *bool  `json:"visible"`
	SendHTML    *bool  `json:"send_html"`
}

// ListPublicNewsletters lists the newsletters open for self-service
// subscription.
func ListPublicNewsletters(c *fiber.Ctx) error {
	var newsletters []model.Newsletter
	if err := database.GetDB().Where("visible = ?", true).
		Order("title").Find(&newsletters).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch newsletters",
		})
	}

	return c.JSON(fiber.Map{
		"newsletters": newsletters,
		"total":       len(newsletters),
	})
}

func ListNewsletters(c *fiber.Ctx) error {
	var newsletters []model.Newsletter
	if err := database.GetDB().Order("title").Find(&newsletters).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch newsletters",
		})
	}

	return c.JSON(fiber.Map{
		"newsletters": newsletters,
		"total":       len(newsletters),
	})
}

func CreateNewsletter(c *fiber.Ctx) error {
	input := new(NewsletterInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	if _, err := mail.ParseAddress(input.SenderEmail); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid sender email format",
		})
	}

	newsletter := model.Newsletter{
		Title:       input.Title,
		Slug:        input.Slug,
		SiteURL:     input.SiteURL,
		SenderEmail: input.SenderEmail,
		SenderName:  input.SenderName,
		Visible:     true,
		SendHTML:    true,
	}
	if input.Visible != nil {
		newsletter.Visible = *input.Visible
	}
	if input.SendHTML != nil {
		newsletter.SendHTML = *input.SendHTML
	}

	if err := database.GetDB().Create(&newsletter).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create newsletter",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(newsletter)
}

func GetNewsletter(c *fiber.Ctx) error {
	var newsletter model.Newsletter
	if err := database.GetDB().Where("slug = ?", c.Params("newsletter_slug")).
		First(&newsletter).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Newsletter not found",
		})
	}

	return c.JSON(newsletter)
}

// UpdateNewsletter edits the mutable newsletter settings. The slug is part of
// template lookups and activation URLs and stays as created.
func UpdateNewsletter(c *fiber.Ctx) error {
	var newsletter model.Newsletter
	if err := database.GetDB().Where("slug = ?", c.Params("newsletter_slug")).
		First(&newsletter).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Newsletter not found",
		})
	}

	input := new(NewsletterInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	if input.Title != "" {
		newsletter.Title = input.Title
	}
	if input.SiteURL != "" {
		newsletter.SiteURL = input.SiteURL
	}
	if input.SenderEmail != "" {
		if _, err := mail.ParseAddress(input.SenderEmail); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid sender email format",
			})
		}
		newsletter.SenderEmail = input.SenderEmail
	}
	if input.SenderName != "" {
		newsletter.SenderName = input.SenderName
	}
	if input.Visible != nil {
		newsletter.Visible = *input.Visible
	}
	if input.SendHTML != nil {
		newsletter.SendHTML = *input.SendHTML
	}

	if err := database.GetDB().Save(&newsletter).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update newsletter",
		})
	}

	return c.JSON(newsletter)
}
