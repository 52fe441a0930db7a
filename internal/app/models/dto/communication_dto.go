package dto

import "github.com/yigit/schoolsphere/internal/app/models"

// AnnouncementRequest is bound from JSON or multipart (with an attachment file)
type AnnouncementRequest struct {
	Title          string          `json:"title" form:"title" binding:"required,max=200"`
	Content        string          `json:"content" form:"content" binding:"required"`
	Priority       models.Priority `json:"priority" form:"priority" binding:"omitempty,oneof=low medium high"`
	TargetRoles    []string        `json:"targetRoles" form:"targetRoles" binding:"required,min=1"`
	TargetClasses  []int64         `json:"targetClasses" form:"targetClasses"`
	TargetSections []int64         `json:"targetSections" form:"targetSections"`
	IsActive       *bool           `json:"isActive" form:"isActive"`
}

type MessageRequest struct {
	RecipientID int64  `json:"recipientId" form:"recipientId" binding:"required,gt=0"`
	Subject     string `json:"subject" form:"subject" binding:"required,max=200"`
	Content     string `json:"content" form:"content" binding:"required"`
}

// UnreadCountResponse reports the caller's unread notifications
type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}
