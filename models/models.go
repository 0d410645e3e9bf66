// solforum/models/models.go
package models

import (
	"database/sql"
	"time"
)

// Role values stored on users.role.
const (
	RoleMember    = "member"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// Report status values.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportDismissed = "dismissed"
)

// ValidRole reports whether s is one of the three known roles.
func ValidRole(s string) bool {
	return s == RoleMember || s == RoleModerator || s == RoleAdmin
}

// ValidReportStatus reports whether s is a known report status.
func ValidReportStatus(s string) bool {
	return s == ReportPending || s == ReportReviewed || s == ReportDismissed
}

// --- Core Data Models ---

type User struct {
	ID              string         `json:"id"`
	Username        string         `json:"username"`
	Role            string         `json:"role"`
	AvatarPath      sql.NullString `json:"-"`
	Avatar          string         `json:"avatar_path,omitempty"`
	Bio             string         `json:"bio"`
	PostCount       int            `json:"post_count"`
	ReputationScore int            `json:"reputation_score"`
	CreatedAt       time.Time      `json:"created_at"`
	LastSeen        sql.NullTime   `json:"-"`
	IsBanned        bool           `json:"is_banned,omitempty"`
	BanReason       string         `json:"ban_reason,omitempty"`
}

// SessionUser is the minimal identity attached to an authenticated request.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsStaff reports whether the session user may use moderation endpoints.
func (su SessionUser) IsStaff() bool {
	return su.Role == RoleModerator || su.Role == RoleAdmin
}

type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	SortOrder   int        `json:"sort_order"`
	Subforums   []Subforum `json:"subforums,omitempty"`
}

type Subforum struct {
	ID               int64          `json:"id"`
	CategoryID       int64          `json:"category_id"`
	Name             string         `json:"name"`
	Description      string         `json:"description"`
	SortOrder        int            `json:"sort_order"`
	IconColor        string         `json:"icon_color"`
	IconLabel        string         `json:"icon_label"`
	ThreadCount      int            `json:"thread_count"`
	PostCount        int            `json:"post_count"`
	LastThreadID     sql.NullInt64  `json:"-"`
	LastPostAt       sql.NullTime   `json:"-"`
	LastPostUsername sql.NullString `json:"-"`
	LastThreadTitle  sql.NullString `json:"-"`
	CategoryName     string         `json:"category_name,omitempty"`
}

type Thread struct {
	ID               int64          `json:"id"`
	SubforumID       int64          `json:"subforum_id"`
	UserID           string         `json:"user_id"`
	Title            string         `json:"title"`
	CreatedAt        time.Time      `json:"created_at"`
	IsSticky         bool           `json:"is_sticky"`
	IsLocked         bool           `json:"is_locked"`
	IsAnnouncement   bool           `json:"is_announcement"`
	ViewCount        int            `json:"view_count"`
	ReplyCount       int            `json:"reply_count"`
	LastPostAt       time.Time      `json:"last_post_at"`
	LastPostUserID   sql.NullString `json:"-"`
	LastPostUsername sql.NullString `json:"-"`
	AuthorUsername   string         `json:"author_username,omitempty"`
	SubforumName     string         `json:"subforum_name,omitempty"`
	CategoryID       int64          `json:"category_id,omitempty"`
	CategoryName     string         `json:"category_name,omitempty"`
}

type Post struct {
	ID        int64        `json:"id"`
	ThreadID  int64        `json:"thread_id"`
	UserID    string       `json:"user_id"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
	EditedAt  sql.NullTime `json:"-"`
	IsEdited  bool         `json:"is_edited"`

	// Joined author fields for thread views.
	AuthorUsername   string         `json:"author_username,omitempty"`
	AuthorRole       string         `json:"author_role,omitempty"`
	AuthorPostCount  int            `json:"author_post_count,omitempty"`
	AuthorCreatedAt  time.Time      `json:"author_created_at"`
	AuthorAvatarPath sql.NullString `json:"-"`
	ThreadTitle      string         `json:"thread_title,omitempty"`
	Reactions        map[string]int `json:"reactions,omitempty"`
}

type Report struct {
	ID         int64          `json:"id"`
	PostID     int64          `json:"post_id"`
	ReporterID string         `json:"reporter_id"`
	Reason     string         `json:"reason"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ReviewedBy sql.NullString `json:"-"`
	ReviewedAt sql.NullTime   `json:"-"`

	// Joined fields for the moderation queue.
	ReporterUsername   string `json:"reporter_username,omitempty"`
	PostContent        string `json:"post_content,omitempty"`
	PostAuthorID       string `json:"post_author_id,omitempty"`
	PostAuthorUsername string `json:"post_author_username,omitempty"`
	ThreadID           int64  `json:"thread_id,omitempty"`
	ThreadTitle        string `json:"thread_title,omitempty"`
	ReviewerUsername   string `json:"reviewer_username,omitempty"`
}

type ModLogEntry struct {
	ID                int64     `json:"id"`
	ModeratorID       string    `json:"moderator_id"`
	Action            string    `json:"action"`
	TargetType        string    `json:"target_type"`
	TargetID          string    `json:"target_id"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
	ModeratorUsername string    `json:"moderator_username,omitempty"`
}

// ForumStats is the aggregate block shown on the front page.
type ForumStats struct {
	TotalThreads  int      `json:"total_threads"`
	TotalPosts    int      `json:"total_posts"`
	TotalMembers  int      `json:"total_members"`
	LatestMember  string   `json:"latest_member"`
	OnlineMembers []string `json:"online_members"`
}

// AdminStats is the dashboard summary for the admin panel.
type AdminStats struct {
	TotalUsers         int `json:"total_users"`
	TotalThreads       int `json:"total_threads"`
	TotalPosts         int `json:"total_posts"`
	PostsToday         int `json:"posts_today"`
	NewMembersThisWeek int `json:"new_members_this_week"`
	PendingReports     int `json:"pending_reports"`
	BannedUsers        int `json:"banned_users"`
}

// StorageService abstracts where avatar files live (local disk or S3).
type StorageService interface {
	SaveFile(filename string, data []byte, contentType string) (string, error)
	DeleteFile(path string) error
}
