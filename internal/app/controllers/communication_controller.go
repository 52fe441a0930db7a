package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
	"github.com/yigit/schoolsphere/internal/pkg/websocket"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// CommunicationController serves announcements, notifications, messages,
// delivery logs and the notification websocket.
type CommunicationController struct {
	communicationService *services.CommunicationService
	hub                  *websocket.Hub
	upgrader             *gorillaws.Upgrader
	auth                 *middleware.AuthMiddleware
	logger               zerolog.Logger
}

func NewCommunicationController(
	communicationService *services.CommunicationService,
	hub *websocket.Hub,
	upgrader *gorillaws.Upgrader,
	auth *middleware.AuthMiddleware,
	logger zerolog.Logger,
) *CommunicationController {
	return &CommunicationController{
		communicationService: communicationService,
		hub:                  hub,
		upgrader:             upgrader,
		auth:                 auth,
		logger:               logger,
	}
}

// CreateAnnouncement godoc
// @Summary Publish an announcement
// @Description Admins and teachers only. Active announcements notify their audience.
// @Tags announcements
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.AnnouncementRequest true "Announcement"
// @Param file formData file false "Attachment"
// @Success 201 {object} dto.APIResponse{data=models.Announcement}
// @Router /announcements [post]
func (c *CommunicationController) CreateAnnouncement(ctx *gin.Context) {
	var req dto.AnnouncementRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	announcement, err := c.communicationService.CreateAnnouncement(ctx.Request.Context(), &req, file)
	respond(ctx, http.StatusCreated, announcement, err)
}

// UpdateAnnouncement godoc
// @Summary Update an announcement
// @Description The author or an admin. Reactivating an announcement notifies its audience again.
// @Tags announcements
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Param request body dto.AnnouncementRequest true "Announcement"
// @Param file formData file false "Replacement attachment"
// @Success 200 {object} dto.APIResponse{data=models.Announcement}
// @Router /announcements/{id} [put]
func (c *CommunicationController) UpdateAnnouncement(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.AnnouncementRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	announcement, err := c.communicationService.UpdateAnnouncement(ctx.Request.Context(), id, &req, file)
	respond(ctx, http.StatusOK, announcement, err)
}

// @Summary Delete an announcement
// @Tags announcements
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} dto.APIResponse
// @Router /announcements/{id} [delete]
func (c *CommunicationController) DeleteAnnouncement(ctx *gin.Context) {
	remove(ctx, "Announcement", c.communicationService.DeleteAnnouncement)
}

// @Summary Get an announcement
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 200 {object} dto.APIResponse{data=models.Announcement}
// @Router /announcements/{id} [get]
func (c *CommunicationController) GetAnnouncement(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	announcement, err := c.communicationService.GetAnnouncement(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, announcement, err)
}

// ListAnnouncements godoc
// @Summary List announcements
// @Description Admins see all; others see active announcements aimed at their role, classes and sections
// @Tags announcements
// @Produce json
// @Security BearerAuth
// @Param priority query string false "low, medium or high"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Announcement}}
// @Router /announcements [get]
func (c *CommunicationController) ListAnnouncements(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	filter := models.CommunicationFilter{Priority: ctx.Query("priority")}
	announcements, total, err := c.communicationService.ListAnnouncements(ctx.Request.Context(), filter, p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, announcements, total, p)
}

// ListNotifications godoc
// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param isRead query bool false "Read filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Notification}}
// @Router /notifications [get]
func (c *CommunicationController) ListNotifications(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	notifications, total, err := c.communicationService.ListNotifications(ctx.Request.Context(), queryBool(ctx, "isRead"), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, notifications, total, p)
}

// @Summary Get a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=models.Notification}
// @Router /notifications/{id} [get]
func (c *CommunicationController) GetNotification(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	notification, err := c.communicationService.GetNotification(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, notification, err)
}

// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=models.Notification}
// @Router /notifications/{id}/read [post]
func (c *CommunicationController) MarkNotificationRead(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	notification, err := c.communicationService.MarkNotificationRead(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, notification, err)
}

// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse
// @Router /notifications/read-all [post]
func (c *CommunicationController) MarkAllNotificationsRead(ctx *gin.Context) {
	n, err := c.communicationService.MarkAllNotificationsRead(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, gin.H{"updated": n})
}

// @Summary Delete a notification
// @Tags notifications
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse
// @Router /notifications/{id} [delete]
func (c *CommunicationController) DeleteNotification(ctx *gin.Context) {
	remove(ctx, "Notification", c.communicationService.DeleteNotification)
}

// @Summary Unread notification count
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UnreadCountResponse}
// @Router /notifications/unread-count [get]
func (c *CommunicationController) UnreadCount(ctx *gin.Context) {
	n, err := c.communicationService.UnreadCount(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, dto.UnreadCountResponse{Unread: n})
}

// SendMessage godoc
// @Summary Send a message
// @Tags messages
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param request body dto.MessageRequest true "Message"
// @Param file formData file false "Attachment"
// @Success 201 {object} dto.APIResponse{data=models.Message}
// @Failure 400 {object} dto.ErrorResponse "Unknown recipient or sending to yourself"
// @Router /messages [post]
func (c *CommunicationController) SendMessage(ctx *gin.Context) {
	var req dto.MessageRequest
	file, valid := bind(ctx, &req)
	if !valid {
		return
	}
	msg, err := c.communicationService.SendMessage(ctx.Request.Context(), &req, file)
	respond(ctx, http.StatusCreated, msg, err)
}

// ListMessages godoc
// @Summary List messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param box query string false "inbox or sent" default(inbox)
// @Param isRead query bool false "Read filter"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.Message}}
// @Router /messages [get]
func (c *CommunicationController) ListMessages(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	box := ctx.DefaultQuery("box", models.BoxInbox)
	messages, total, err := c.communicationService.ListMessages(ctx.Request.Context(), box, queryBool(ctx, "isRead"), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, messages, total, p)
}

// @Summary Get a message
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=models.Message}
// @Failure 403 {object} dto.ErrorResponse "Not a participant"
// @Router /messages/{id} [get]
func (c *CommunicationController) GetMessage(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	msg, err := c.communicationService.GetMessage(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, msg, err)
}

// @Summary Mark a message read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse{data=models.Message}
// @Failure 403 {object} dto.ErrorResponse "Only the recipient"
// @Router /messages/{id}/read [post]
func (c *CommunicationController) MarkMessageRead(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	msg, err := c.communicationService.MarkMessageRead(ctx.Request.Context(), id)
	respond(ctx, http.StatusOK, msg, err)
}

// @Summary Delete a message
// @Tags messages
// @Security BearerAuth
// @Param id path int true "Message ID"
// @Success 200 {object} dto.APIResponse
// @Router /messages/{id} [delete]
func (c *CommunicationController) DeleteMessage(ctx *gin.Context) {
	remove(ctx, "Message", c.communicationService.DeleteMessage)
}

// ListEmailLogs godoc
// @Summary Email delivery log
// @Description Admins only, last 30 days
// @Tags delivery-logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.EmailLog}}
// @Router /logs/email [get]
func (c *CommunicationController) ListEmailLogs(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	logs, total, err := c.communicationService.ListEmailLogs(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, logs, total, p)
}

// ListSMSLogs godoc
// @Summary SMS delivery log
// @Description Admins only, last 30 days
// @Tags delivery-logs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.SMSLog}}
// @Router /logs/sms [get]
func (c *CommunicationController) ListSMSLogs(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	logs, total, err := c.communicationService.ListSMSLogs(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, logs, total, p)
}

// Notifications godoc
// @Summary Notification stream
// @Description Upgrades to a websocket after validating the token query parameter and streams the caller's new notifications
// @Tags notifications
// @Param token query string true "Access token"
// @Success 101 "Switching protocols"
// @Failure 401 {object} dto.ErrorResponse "Missing, invalid or foreign token"
// @Router /ws/notifications [get]
func (c *CommunicationController) Notifications(ctx *gin.Context) {
	actor, err := c.auth.Authenticate(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	sub := websocket.Subscriber{Schema: tenancy.Schema(ctx.Request.Context()), UserID: actor.UserID}
	if err := c.hub.Serve(c.upgrader, ctx.Writer, ctx.Request, sub); err != nil {
		c.logger.Warn().Err(err).Int64("userId", actor.UserID).Msg("Notification stream not opened")
	}
}
