package handlers

import (
	"context"
	"errors"
	"strconv"

	"github.com/dkovac/taskboard-api/internal/middleware"
	"github.com/dkovac/taskboard-api/internal/services"
	"github.com/dkovac/taskboard-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	notificationService NotificationServiceInterface
}

func NewNotificationHandler(notificationService NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	notifications, err := h.notificationService.List(context.Background(), userID, limit)
	if err != nil {
		c.InternalServerError("failed to list notifications")
		return
	}

	resp := make([]dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, dto.NotificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Link:      n.Link,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}

	_ = c.JSON(200, resp)
}

func (h *NotificationHandler) MarkRead(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	notificationID, err := uuid.Parse(c.Param("notificationId"))
	if err != nil {
		c.BadRequest("invalid notification id")
		return
	}

	err = h.notificationService.MarkRead(context.Background(), userID, notificationID)
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.NotFound("notification not found")
			return
		}
		c.InternalServerError("failed to mark notification read")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "notification read"})
}

func (h *NotificationHandler) GetSettings(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	settings, err := h.notificationService.GetSettings(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to load settings")
		return
	}

	_ = c.JSON(200, dto.NotificationSettingsResponse{
		EmailEnabled: settings.EmailEnabled,
		SlackEnabled: settings.SlackEnabled,
	})
}

func (h *NotificationHandler) UpdateSettings(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.NotificationSettingsRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	settings, err := h.notificationService.UpdateSettings(context.Background(), userID, req.EmailEnabled, req.SlackEnabled)
	if err != nil {
		c.InternalServerError("failed to update settings")
		return
	}

	_ = c.JSON(200, dto.NotificationSettingsResponse{
		EmailEnabled: settings.EmailEnabled,
		SlackEnabled: settings.SlackEnabled,
	})
}
