package controller

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
	"newsletter_backend/pkg/utils/image"
	"newsletter_backend/pkg/utils/storage"
)

type MessageInput struct {
	NewsletterID uint   `json:"newsletter_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Slug         string `json:"slug"`
	Body         string `json:"body"`
}

type SubmissionInput struct {
	MessageID uint `json:"message_id" validate:"required"`
}

func ListMessages(c *fiber.Ctx) error {
	query := database.GetDB().Preload("Images")
	if newsletterID := c.Query("newsletter_id"); newsletterID != "" {
		query = query.Where("newsletter_id = ?", newsletterID)
	}

	var messages []model.Message
	if err := query.Order("created_at DESC").Find(&messages).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch messages",
		})
	}

	return c.JSON(fiber.Map{
		"messages": messages,
		"total":    len(messages),
	})
}

func CreateMessage(c *fiber.Ctx) error {
	input := new(MessageInput)
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

	message := model.Message{
		NewsletterID: input.NewsletterID,
		Title:        input.Title,
		Slug:         input.Slug,
		Body:         input.Body,
	}

	if err := database.GetDB().Create(&message).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create message",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(message)
}

// UploadMessageImage converts the uploaded image to webp and stores it with
// the message.
func UploadMessageImage(c *fiber.Ctx) error {
	messageID, err := strconv.ParseUint(c.Params("message_id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid message ID",
		})
	}

	var message model.Message
	if err := database.GetDB().First(&message, messageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded",
		})
	}

	if file.Size > image.MaxImageSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File size too large. Maximum size is 10MB",
		})
	}

	contentType := file.Header.Get("Content-Type")
	if !image.AllowedImageTypes[contentType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only JPEG, PNG and WebP files are allowed",
		})
	}

	buf, contentType, err := image.ProcessImage(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not process image",
		})
	}

	var order int64
	database.GetDB().Model(&model.MessageImage{}).
		Where("message_id = ?", messageID).
		Count(&order)

	url, err := storage.UploadImage(buf, contentType, uint(messageID), file.Filename)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not upload image",
		})
	}

	messageImage := model.MessageImage{
		MessageID: uint(messageID),
		URL:       url,
		Order:     int(order),
	}

	if err := database.GetDB().Create(&messageImage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save image record",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Image uploaded successfully",
		"image":   messageImage,
	})
}

// DeleteMessageImage removes an image from a message and from storage.
func DeleteMessageImage(c *fiber.Ctx) error {
	imageID, err := strconv.ParseUint(c.Params("image_id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid image ID",
		})
	}

	var messageImage model.MessageImage
	if err := database.GetDB().
		Where("message_id = ?", c.Params("message_id")).
		First(&messageImage, imageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Image not found",
		})
	}

	if err := storage.DeleteImage(messageImage.URL); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete image from storage",
		})
	}

	if err := database.GetDB().Delete(&messageImage).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not delete image record",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Image deleted successfully",
	})
}

func ListSubmissions(c *fiber.Ctx) error {
	query := database.GetDB().Preload("Message")
	if newsletterID := c.Query("newsletter_id"); newsletterID != "" {
		query = query.Where("newsletter_id = ?", newsletterID)
	}

	var submissions []model.Submission
	if err := query.Order("created_at DESC").Find(&submissions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not fetch submissions",
		})
	}

	return c.JSON(fiber.Map{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

func CreateSubmission(c *fiber.Ctx) error {
	input := new(SubmissionInput)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	var message model.Message
	if err := database.GetDB().First(&message, input.MessageID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Message not found",
		})
	}

	submission := model.Submission{
		MessageID:    message.ID,
		NewsletterID: message.NewsletterID,
	}

	if err := database.GetDB().Create(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create submission",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(submission)
}

// SubmitSubmission marks a submission ready for the send loop, optionally at
// a scheduled time.
func SubmitSubmission(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	var submission model.Submission
	if err := database.GetDB().First(&submission, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Submission not found",
		})
	}

	if submission.Sent {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Submission has already been sent",
		})
	}

	var input struct {
		SendDate *time.Time `json:"send_date"`
	}
	if err := c.BodyParser(&input); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid input",
		})
	}

	sendDate := time.Now()
	if input.SendDate != nil {
		sendDate = *input.SendDate
	}

	submission.Prepared = true
	submission.SendDate = &sendDate

	if err := database.GetDB().Save(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not submit submission",
		})
	}

	return c.JSON(submission)
}
