package controller

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"newsletter_backend/internal/model"
	"newsletter_backend/pkg/database"
	"newsletter_backend/pkg/utils/jwt"
)

// importPath is where the confirm step sends clients that arrive without a
// usable draft.
const importPath = "/api/admin/subscriptions/import"

// parseAddressList reads an uploaded address list (CSV with optional header,
// or one address per line) into an email-to-name mapping. Any invalid row is
// a validation error; nothing is persisted here.
func parseAddressList(r io.Reader) (map[string]string, []string) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	addresses := make(map[string]string)
	var errs []string

	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			errs = append(errs, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if len(record) == 0 {
			continue
		}

		// Header row
		if line == 1 && !strings.Contains(strings.Join(record, ","), "@") {
			continue
		}

		emailAddr, name := record[0], ""
		if len(record) > 1 {
			// Accept both name,email and email,name column orders.
			if !strings.Contains(emailAddr, "@") && strings.Contains(record[1], "@") {
				emailAddr, name = record[1], record[0]
			} else {
				name = record[1]
			}
		}

		emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
		if _, err := mail.ParseAddress(emailAddr); err != nil {
			errs = append(errs, fmt.Sprintf("line %d: invalid email %q", line, emailAddr))
			continue
		}

		if _, exists := addresses[emailAddr]; exists {
			errs = append(errs, fmt.Sprintf("line %d: duplicate email %q", line, emailAddr))
			continue
		}

		addresses[emailAddr] = strings.TrimSpace(name)
	}

	if len(addresses) == 0 && len(errs) == 0 {
		errs = append(errs, "no addresses found in uploaded file")
	}

	return addresses, errs
}

// ImportSubscribers is step one of the bulk import: parse and validate the
// uploaded address list and stash it in a confirmable draft.
func ImportSubscribers(c *fiber.Ctx) error {
	claims := c.Locals("user").(*jwt.Claims)

	newsletterID, err := strconv.ParseUint(c.FormValue("newsletter_id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid newsletter ID",
		})
	}

	var newsletter model.Newsletter
	if err := database.GetDB().First(&newsletter, newsletterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Newsletter not found",
		})
	}

	file, err := c.FormFile("addresses")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No address file uploaded",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}
	defer src.Close()

	addresses, parseErrors := parseAddressList(src)
	if len(parseErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Address list contains errors",
			"errors": parseErrors,
		})
	}

	draft, err := model.NewImportDraft(claims.UserID, uint(newsletterID), addresses)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not prepare import",
		})
	}

	if err := database.GetDB().Create(draft).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not store import draft",
		})
	}

	log.Printf("Parsed %d addresses for newsletter %s", len(addresses), newsletter.Slug)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":       draft.Token,
		"addresses":   addresses,
		"count":       len(addresses),
		"expires_at":  draft.ExpiresAt,
		"confirm_url": importPath + "/confirm?token=" + draft.Token,
	})
}

// draftForToken loads a live draft, or nil when the token is missing, unknown
// or expired — in which case the workflow starts over at step one.
func draftForToken(token string) *model.ImportDraft {
	if token == "" {
		return nil
	}

	var draft model.ImportDraft
	if err := database.GetDB().Where("token = ?", token).First(&draft).Error; err != nil {
		return nil
	}
	if draft.Expired() {
		return nil
	}

	return &draft
}

// ImportConfirmForm is the review screen of step two: it redisplays the
// parsed addresses before anything is committed.
func ImportConfirmForm(c *fiber.Ctx) error {
	draft := draftForToken(c.Query("token"))
	if draft == nil {
		return c.Redirect(importPath)
	}

	addresses, err := draft.AddressMap()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not decode import draft",
		})
	}

	return c.JSON(fiber.Map{
		"token":      draft.Token,
		"addresses":  addresses,
		"count":      len(addresses),
		"expires_at": draft.ExpiresAt,
	})
}

// ImportConfirm commits the draft: every parsed address becomes a new
// subscription saved through the state hook. The draft is discarded whatever
// happens, so a stale address set cannot be replayed.
func ImportConfirm(c *fiber.Ctx) error {
	draft := draftForToken(c.Query("token"))
	if draft == nil {
		return c.Redirect(importPath)
	}

	addresses, err := draft.AddressMap()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not decode import draft",
		})
	}

	defer func() {
		if err := database.GetDB().Delete(draft).Error; err != nil {
			log.Printf("Could not discard import draft %s: %v", draft.Token, err)
		}
	}()

	added := 0
	for emailAddr, name := range addresses {
		subscription := model.Subscription{
			Name:         name,
			Email:        emailAddr,
			NewsletterID: draft.NewsletterID,
			Subscribed:   true,
			IP:           c.IP(),
		}

		if err := database.GetDB().Create(&subscription).Error; err != nil {
			log.Printf("Could not import %s: %v", emailAddr, err)
			continue
		}
		added++
	}

	return c.JSON(fiber.Map{
		"message":  fmt.Sprintf("%d subscriptions have been successfully added", added),
		"added":    added,
		"list_url": "/api/admin/subscriptions",
	})
}
