package server

import (
	"errors"
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"swipefeed/feeds"
	"swipefeed/models"
)

// User facing messages
const (
	msgUnauthorized       = "No autorizado"
	msgInvalidLimit       = "El límite debe estar entre 1 y 50"
	msgInvalidCursor      = "Cursor inválido"
	msgFeedFailed         = "Error al obtener el feed"
	msgInvalidInteraction = "Datos de interacción inválidos"
	msgSelfInteraction    = "No puedes interactuar contigo mismo"
	msgInteractionFailed  = "Error al registrar la interacción"
)

type errorResponse struct {
	Message string `json:"message"`
}

type interactionRequest struct {
	ToUserID        string `json:"toUserId"`
	InteractionType string `json:"interactionType"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type handlers struct {
	repo         FeedRepository
	defaultLimit int
}

func (h *handlers) getFeed(c *fiber.Ctx) error {
	session := sessionFrom(c)

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidLimit})
		}
		limit = parsed
	}
	if !feeds.ValidLimit(limit) {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidLimit})
	}

	cursor, ok := parseCursor(c.Query("after_score"), c.Query("after_user"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidCursor})
	}

	log.WithFields(log.Fields{
		"viewer": session.UserID,
		"cursor": cursor,
		"limit":  limit,
	}).Info("Get feed with parameters")

	page, err := h.repo.FetchFeedPage(c.UserContext(), session.UserID, limit, cursor)
	if err != nil {
		if errors.Is(err, feeds.ErrInvalidLimit) {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidLimit})
		}
		log.WithFields(log.Fields{
			"viewer": session.UserID,
			"error":  err,
		}).Error("Error fetching feed page")
		return c.Status(fiber.StatusBadGateway).JSON(errorResponse{Message: msgFeedFailed})
	}

	h.repo.BumpUserActivity(session.UserID)

	return c.JSON(page)
}

// parseCursor accepts either both cursor parameters or neither
func parseCursor(rawScore string, rawUser string) (*models.Cursor, bool) {
	if rawScore == "" && rawUser == "" {
		return nil, true
	}
	if rawScore == "" || rawUser == "" {
		return nil, false
	}

	score, err := strconv.ParseFloat(rawScore, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return nil, false
	}
	if _, err := uuid.Parse(rawUser); err != nil {
		return nil, false
	}

	return &models.Cursor{AfterScore: score, AfterUser: rawUser}, true
}

func (h *handlers) postInteraction(c *fiber.Ctx) error {
	session := sessionFrom(c)

	var body interactionRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidInteraction})
	}

	kind := models.InteractionKind(body.InteractionType)

	// Reject before touching the backend
	err := feeds.ValidateInteraction(models.Interaction{
		FromUserID: session.UserID,
		ToUserID:   body.ToUserID,
		Kind:       kind,
	})
	switch {
	case errors.Is(err, feeds.ErrSelfInteraction):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgSelfInteraction})
	case err != nil:
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Message: msgInvalidInteraction})
	}

	if err := h.repo.RecordInteraction(c.UserContext(), session.UserID, body.ToUserID, kind); err != nil {
		log.WithFields(log.Fields{
			"from":  session.UserID,
			"to":    body.ToUserID,
			"kind":  kind,
			"error": err,
		}).Error("Error recording interaction")
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Message: msgInteractionFailed})
	}

	return c.JSON(successResponse{Success: true})
}
