package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/driftchat/realtime/pkg/database"
)

// Message type discriminators.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeGIF   = "gif"
)

// NormalizeMessageType maps unknown type tags to text.
func NormalizeMessageType(t string) string {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeGIF:
		return t
	default:
		return MessageTypeText
	}
}

// Friendship states. Rejected tuples are deleted rather than retained.
const (
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusBlocked  = "blocked"
)

// Conversation is a participant-scoped message thread. The participant set is
// immutable once created; participant_key is the sorted participant ids joined
// with ":" and carries a unique index so a concurrent first-contact race from
// both participants results in at most one row.
type Conversation struct {
	ID             string               `gorm:"type:varchar(36);primaryKey"`
	Participants   database.StringArray `gorm:"not null"`
	ParticipantKey string               `gorm:"column:participant_key;type:varchar(150);uniqueIndex;not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.ParticipantKey == "" {
		c.ParticipantKey = ParticipantKey(c.Participants)
	}
	return nil
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the peer of userID in a two-party conversation,
// or "" if userID is not a participant or has no peer.
func (c *Conversation) OtherParticipant(userID string) string {
	if !c.HasParticipant(userID) {
		return ""
	}
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}

// NormalizeParticipants deduplicates and sorts participant ids so {A,B} and
// {B,A} resolve identically.
func NormalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ParticipantKey derives the unique lookup key for a participant set.
func ParticipantKey(ids []string) string {
	return strings.Join(NormalizeParticipants(ids), ":")
}

// Message belongs to exactly one conversation. Media messages additionally
// carry the upload metadata; the binary itself lives behind FileURL.
type Message struct {
	ID               string `gorm:"type:varchar(36);primaryKey"`
	ConversationID   string `gorm:"column:conversation_id;type:varchar(36);index;not null"`
	SenderID         string `gorm:"column:sender_id;type:varchar(36);index;not null"`
	Content          string `gorm:"type:text;not null"`
	Type             string `gorm:"type:varchar(16);not null;default:text"`
	Read             bool   `gorm:"column:is_read;not null;default:false"`
	FileURL          string `gorm:"column:file_url;type:text"`
	OriginalFileName string `gorm:"column:original_file_name;type:varchar(255)"`
	FileSize         int64  `gorm:"column:file_size"`
	MimeType         string `gorm:"column:mime_type;type:varchar(100)"`
	CreatedAt        time.Time
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// Friendship is a directed-creation, symmetric-effect relation: UserID sent
// the request, FriendID received it, and queries treat the pair as unordered.
// At most one row exists per unordered pair.
type Friendship struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:idx_friend_pair"`
	FriendID  string `gorm:"column:friend_id;type:varchar(36);not null;uniqueIndex:idx_friend_pair"`
	Status    string `gorm:"type:varchar(16);not null;default:pending"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Friendship) TableName() string { return "friendships" }
