package models

import "time"

// Priority orders announcements.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// NotificationType tags what triggered a notification.
type NotificationType string

const (
	NotifyAnnouncement NotificationType = "announcement"
	NotifyAssignment   NotificationType = "assignment"
	NotifyAttendance   NotificationType = "attendance"
	NotifyFee          NotificationType = "fee"
	NotifyResult       NotificationType = "result"
	NotifyOther        NotificationType = "other"
)

// DeliveryStatus is the outcome of an outbound email or SMS.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

type Announcement struct {
	ID             int64      `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	Priority       Priority   `json:"priority" db:"priority"`
	AuthorID       int64      `json:"authorId" db:"author_id"`
	TargetRoles    StringList `json:"targetRoles" db:"target_roles"`
	TargetClasses  []int64    `json:"targetClasses" db:"-"`
	TargetSections []int64    `json:"targetSections" db:"-"`
	AttachmentKey  string     `json:"-" db:"attachment_key"`
	AttachmentURL  string     `json:"attachmentUrl,omitempty" db:"-"`
	IsActive       bool       `json:"isActive" db:"is_active"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

type Notification struct {
	ID               int64            `json:"id" db:"id"`
	RecipientID      int64            `json:"recipientId" db:"recipient_id"`
	Title            string           `json:"title" db:"title"`
	Message          string           `json:"message" db:"message"`
	NotificationType NotificationType `json:"notificationType" db:"notification_type"`
	IsRead           bool             `json:"isRead" db:"is_read"`
	ObjectType       string           `json:"objectType,omitempty" db:"object_type"`
	ObjectID         *int64           `json:"objectId,omitempty" db:"object_id"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
}

type Message struct {
	ID            int64     `json:"id" db:"id"`
	SenderID      int64     `json:"senderId" db:"sender_id"`
	RecipientID   int64     `json:"recipientId" db:"recipient_id"`
	Subject       string    `json:"subject" db:"subject"`
	Content       string    `json:"content" db:"content"`
	AttachmentKey string    `json:"-" db:"attachment_key"`
	AttachmentURL string    `json:"attachmentUrl,omitempty" db:"-"`
	IsRead        bool      `json:"isRead" db:"is_read"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

type EmailLog struct {
	ID           int64          `json:"id" db:"id"`
	Recipient    string         `json:"recipient" db:"recipient"`
	Subject      string         `json:"subject" db:"subject"`
	Content      string         `json:"content" db:"content"`
	Status       DeliveryStatus `json:"status" db:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty" db:"error_message"`
	SentAt       *time.Time     `json:"sentAt,omitempty" db:"sent_at"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

type SMSLog struct {
	ID           int64          `json:"id" db:"id"`
	Recipient    string         `json:"recipient" db:"recipient"`
	Message      string         `json:"message" db:"message"`
	Status       DeliveryStatus `json:"status" db:"status"`
	ErrorMessage string         `json:"errorMessage,omitempty" db:"error_message"`
	SentAt       *time.Time     `json:"sentAt,omitempty" db:"sent_at"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
}

// Mailbox names for listing messages.
const (
	BoxInbox = "inbox"
	BoxSent  = "sent"
)

// Audience is what an announcement reader is matched against.
type Audience struct {
	Role       RoleType
	ClassIDs   []int64
	SectionIDs []int64
}

// CommunicationFilter carries list filters for communication resources.
type CommunicationFilter struct {
	UserID   int64
	Box      string
	IsRead   *bool
	Since    *time.Time
	Audience *Audience
	Priority string
}
