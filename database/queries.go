// solforum/database/queries.go
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"solforum/models"
	"solforum/utils"
)

// GetCategoriesWithSubforums returns the front-page tree, ordered by sort
// order at both levels.
func (ds *DatabaseService) GetCategoriesWithSubforums() ([]models.Category, error) {
	rows, err := ds.DB.Query("SELECT id, name, description, sort_order FROM categories ORDER BY sort_order, id")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetCategoriesWithSubforums", "error", err)
		}
	}()

	var categories []models.Category
	index := make(map[int64]*models.Category)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder); err != nil {
			ds.logger.Error("Failed to scan category row", "error", err)
			continue
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range categories {
		index[categories[i].ID] = &categories[i]
	}

	sfRows, err := ds.DB.Query(`
		SELECT s.id, s.category_id, s.name, s.description, s.sort_order, s.icon_color, s.icon_label,
		       s.thread_count, s.post_count, s.last_thread_id, s.last_post_at, s.last_post_username,
		       t.title
		FROM subforums s
		LEFT JOIN threads t ON t.id = s.last_thread_id
		ORDER BY s.sort_order, s.id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sfRows.Close(); err != nil {
			ds.logger.Error("Failed to close subforum rows", "error", err)
		}
	}()

	for sfRows.Next() {
		var s models.Subforum
		if err := sfRows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.SortOrder, &s.IconColor, &s.IconLabel,
			&s.ThreadCount, &s.PostCount, &s.LastThreadID, &s.LastPostAt, &s.LastPostUsername, &s.LastThreadTitle); err != nil {
			ds.logger.Error("Failed to scan subforum row", "error", err)
			continue
		}
		if cat, ok := index[s.CategoryID]; ok {
			cat.Subforums = append(cat.Subforums, s)
		}
	}
	if err := sfRows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetSubforum fetches one subforum with its category name.
func (ds *DatabaseService) GetSubforum(id int64) (*models.Subforum, error) {
	var s models.Subforum
	err := ds.DB.QueryRow(`
		SELECT s.id, s.category_id, s.name, s.description, s.sort_order, s.icon_color, s.icon_label,
		       s.thread_count, s.post_count, s.last_thread_id, s.last_post_at, s.last_post_username,
		       c.name
		FROM subforums s JOIN categories c ON c.id = s.category_id
		WHERE s.id = ?`, id).Scan(
		&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.SortOrder, &s.IconColor, &s.IconLabel,
		&s.ThreadCount, &s.PostCount, &s.LastThreadID, &s.LastPostAt, &s.LastPostUsername, &s.CategoryName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subforum %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubforums returns every subforum with its category name, for the
// thread-move and new-thread pickers.
func (ds *DatabaseService) ListSubforums() ([]models.Subforum, error) {
	rows, err := ds.DB.Query(`
		SELECT s.id, s.category_id, s.name, s.description, s.sort_order, s.icon_color, s.icon_label,
		       s.thread_count, s.post_count, c.name
		FROM subforums s JOIN categories c ON c.id = s.category_id
		ORDER BY c.sort_order, s.sort_order, s.id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListSubforums", "error", err)
		}
	}()

	var subforums []models.Subforum
	for rows.Next() {
		var s models.Subforum
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Description, &s.SortOrder, &s.IconColor, &s.IconLabel,
			&s.ThreadCount, &s.PostCount, &s.CategoryName); err != nil {
			ds.logger.Error("Failed to scan subforum row", "error", err)
			continue
		}
		subforums = append(subforums, s)
	}
	return subforums, rows.Err()
}

// GetThreadsBySubforum returns one page of a subforum's thread list. Sticky
// threads sort first, then most recent activity.
func (ds *DatabaseService) GetThreadsBySubforum(subforumID int64, page, pageSize int) ([]models.Thread, int, error) {
	var total int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM threads WHERE subforum_id = ?", subforumID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	rows, err := ds.DB.Query(`
		SELECT t.id, t.subforum_id, t.user_id, t.title, t.created_at, t.is_sticky, t.is_locked, t.is_announcement,
		       t.view_count, t.reply_count, t.last_post_at, t.last_post_user_id, t.last_post_username,
		       u.username
		FROM threads t JOIN users u ON u.id = t.user_id
		WHERE t.subforum_id = ?
		ORDER BY t.is_sticky DESC, t.last_post_at DESC
		LIMIT ? OFFSET ?`, subforumID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetThreadsBySubforum", "error", err)
		}
	}()

	var threads []models.Thread
	for rows.Next() {
		var t models.Thread
		if err := rows.Scan(&t.ID, &t.SubforumID, &t.UserID, &t.Title, &t.CreatedAt, &t.IsSticky, &t.IsLocked, &t.IsAnnouncement,
			&t.ViewCount, &t.ReplyCount, &t.LastPostAt, &t.LastPostUserID, &t.LastPostUsername, &t.AuthorUsername); err != nil {
			ds.logger.Error("Failed to scan thread row", "error", err)
			continue
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return threads, total, nil
}

// GetThread fetches one thread with its subforum and category names, and
// counts the view.
func (ds *DatabaseService) GetThread(id int64) (*models.Thread, error) {
	if _, err := ds.DB.Exec("UPDATE threads SET view_count = view_count + 1 WHERE id = ?", id); err != nil {
		return nil, err
	}

	var t models.Thread
	err := ds.DB.QueryRow(`
		SELECT t.id, t.subforum_id, t.user_id, t.title, t.created_at, t.is_sticky, t.is_locked, t.is_announcement,
		       t.view_count, t.reply_count, t.last_post_at, t.last_post_user_id, t.last_post_username,
		       u.username, s.name, c.id, c.name
		FROM threads t
		JOIN users u ON u.id = t.user_id
		JOIN subforums s ON s.id = t.subforum_id
		JOIN categories c ON c.id = s.category_id
		WHERE t.id = ?`, id).Scan(
		&t.ID, &t.SubforumID, &t.UserID, &t.Title, &t.CreatedAt, &t.IsSticky, &t.IsLocked, &t.IsAnnouncement,
		&t.ViewCount, &t.ReplyCount, &t.LastPostAt, &t.LastPostUserID, &t.LastPostUsername,
		&t.AuthorUsername, &t.SubforumName, &t.CategoryID, &t.CategoryName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("thread %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetPostsByThread returns one page of a thread's posts with author details
// and reaction tallies.
func (ds *DatabaseService) GetPostsByThread(threadID int64, page, pageSize int) ([]models.Post, int, error) {
	var total int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM posts WHERE thread_id = ?", threadID).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	rows, err := ds.DB.Query(`
		SELECT p.id, p.thread_id, p.user_id, p.content, p.created_at, p.edited_at, p.is_edited,
		       u.username, u.role, u.post_count, u.created_at, u.avatar_path
		FROM posts p JOIN users u ON u.id = p.user_id
		WHERE p.thread_id = ?
		ORDER BY p.created_at ASC, p.id ASC
		LIMIT ? OFFSET ?`, threadID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetPostsByThread", "error", err)
		}
	}()

	var posts []models.Post
	postMap := make(map[int64]*models.Post)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.UserID, &p.Content, &p.CreatedAt, &p.EditedAt, &p.IsEdited,
			&p.AuthorUsername, &p.AuthorRole, &p.AuthorPostCount, &p.AuthorCreatedAt, &p.AuthorAvatarPath); err != nil {
			ds.logger.Error("Failed to scan post row", "error", err)
			continue
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return posts, total, nil
	}

	ids := make([]interface{}, 0, len(posts))
	for i := range posts {
		postMap[posts[i].ID] = &posts[i]
		ids = append(ids, posts[i].ID)
	}

	query := "SELECT post_id, reaction_type, COUNT(*) FROM reactions WHERE post_id IN (?" +
		strings.Repeat(",?", len(ids)-1) + ") GROUP BY post_id, reaction_type"
	rRows, err := ds.DB.Query(query, ids...)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		if err := rRows.Close(); err != nil {
			ds.logger.Error("Failed to close reaction rows", "error", err)
		}
	}()
	for rRows.Next() {
		var postID int64
		var rType string
		var count int
		if err := rRows.Scan(&postID, &rType, &count); err != nil {
			ds.logger.Error("Failed to scan reaction row", "error", err)
			continue
		}
		if p, ok := postMap[postID]; ok {
			if p.Reactions == nil {
				p.Reactions = make(map[string]int)
			}
			p.Reactions[rType] = count
		}
	}
	if err := rRows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// GetUserByUsername fetches a public profile. Username match is
// case-insensitive.
func (ds *DatabaseService) GetUserByUsername(username string) (*models.User, error) {
	var u models.User
	err := ds.DB.QueryRow(`
		SELECT id, username, role, avatar_path, bio, post_count, reputation_score, created_at, last_seen, is_banned
		FROM users WHERE username = ? COLLATE NOCASE`, username).Scan(
		&u.ID, &u.Username, &u.Role, &u.AvatarPath, &u.Bio, &u.PostCount, &u.ReputationScore, &u.CreatedAt, &u.LastSeen, &u.IsBanned)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	u.Avatar = u.AvatarPath.String
	return &u, nil
}

// GetRecentPostsByUser returns a user's latest posts with thread titles.
func (ds *DatabaseService) GetRecentPostsByUser(userID string, limit int) ([]models.Post, error) {
	rows, err := ds.DB.Query(`
		SELECT p.id, p.thread_id, p.user_id, p.content, p.created_at, p.edited_at, p.is_edited, t.title
		FROM posts p JOIN threads t ON t.id = p.thread_id
		WHERE p.user_id = ?
		ORDER BY p.created_at DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetRecentPostsByUser", "error", err)
		}
	}()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.ThreadID, &p.UserID, &p.Content, &p.CreatedAt, &p.EditedAt, &p.IsEdited, &p.ThreadTitle); err != nil {
			ds.logger.Error("Failed to scan post row", "error", err)
			continue
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetForumStats returns the front-page aggregate block. Members seen within
// the last five minutes count as online.
func (ds *DatabaseService) GetForumStats() (*models.ForumStats, error) {
	var stats models.ForumStats
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM threads").Scan(&stats.TotalThreads); err != nil {
		return nil, err
	}
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM posts").Scan(&stats.TotalPosts); err != nil {
		return nil, err
	}
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM users").Scan(&stats.TotalMembers); err != nil {
		return nil, err
	}
	err := ds.DB.QueryRow("SELECT username FROM users ORDER BY created_at DESC, rowid DESC LIMIT 1").Scan(&stats.LatestMember)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	cutoff := utils.GetSQLTime().Add(-5 * time.Minute)
	rows, err := ds.DB.Query("SELECT username FROM users WHERE last_seen > ? ORDER BY last_seen DESC LIMIT 50", cutoff)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetForumStats", "error", err)
		}
	}()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err == nil {
			stats.OnlineMembers = append(stats.OnlineMembers, name)
		}
	}
	return &stats, rows.Err()
}

// GetAdminStats returns the dashboard summary for the admin panel.
func (ds *DatabaseService) GetAdminStats() (*models.AdminStats, error) {
	var stats models.AdminStats
	now := utils.GetSQLTime()
	queries := []struct {
		dest  *int
		query string
		args  []interface{}
	}{
		{&stats.TotalUsers, "SELECT COUNT(*) FROM users", nil},
		{&stats.TotalThreads, "SELECT COUNT(*) FROM threads", nil},
		{&stats.TotalPosts, "SELECT COUNT(*) FROM posts", nil},
		{&stats.PostsToday, "SELECT COUNT(*) FROM posts WHERE created_at > ?", []interface{}{now.Add(-24 * time.Hour)}},
		{&stats.NewMembersThisWeek, "SELECT COUNT(*) FROM users WHERE created_at > ?", []interface{}{now.Add(-7 * 24 * time.Hour)}},
		{&stats.PendingReports, "SELECT COUNT(*) FROM reports WHERE status = 'pending'", nil},
		{&stats.BannedUsers, "SELECT COUNT(*) FROM users WHERE is_banned = 1", nil},
	}
	for _, q := range queries {
		if err := ds.DB.QueryRow(q.query, q.args...).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// GetReports returns the moderation queue, pending first unless a status
// filter is given.
func (ds *DatabaseService) GetReports(status string, limit int) ([]models.Report, error) {
	query := `
		SELECT r.id, r.post_id, r.reporter_id, r.reason, r.status, r.created_at, r.reviewed_by, r.reviewed_at,
		       ru.username, p.content, p.user_id, au.username, p.thread_id, t.title,
		       COALESCE(vu.username, '')
		FROM reports r
		JOIN users ru ON ru.id = r.reporter_id
		JOIN posts p ON p.id = r.post_id
		JOIN users au ON au.id = p.user_id
		JOIN threads t ON t.id = p.thread_id
		LEFT JOIN users vu ON vu.id = r.reviewed_by`
	args := []interface{}{}
	if status != "" {
		query += " WHERE r.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY r.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := ds.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetReports", "error", err)
		}
	}()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.PostID, &r.ReporterID, &r.Reason, &r.Status, &r.CreatedAt, &r.ReviewedBy, &r.ReviewedAt,
			&r.ReporterUsername, &r.PostContent, &r.PostAuthorID, &r.PostAuthorUsername, &r.ThreadID, &r.ThreadTitle,
			&r.ReviewerUsername); err != nil {
			ds.logger.Error("Failed to scan report row", "error", err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// GetModerationLog returns the newest moderation actions.
func (ds *DatabaseService) GetModerationLog(limit int) ([]models.ModLogEntry, error) {
	rows, err := ds.DB.Query(`
		SELECT m.id, m.moderator_id, m.action, m.target_type, m.target_id, m.reason, m.created_at,
		       COALESCE(u.username, '')
		FROM moderation_log m
		LEFT JOIN users u ON u.id = m.moderator_id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in GetModerationLog", "error", err)
		}
	}()

	var entries []models.ModLogEntry
	for rows.Next() {
		var e models.ModLogEntry
		if err := rows.Scan(&e.ID, &e.ModeratorID, &e.Action, &e.TargetType, &e.TargetID, &e.Reason, &e.CreatedAt, &e.ModeratorUsername); err != nil {
			ds.logger.Error("Failed to scan moderation log row", "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListUsers returns users for the admin panel, newest first.
func (ds *DatabaseService) ListUsers(limit, offset int) ([]models.User, error) {
	rows, err := ds.DB.Query(`
		SELECT id, username, role, avatar_path, bio, post_count, reputation_score, created_at, last_seen, is_banned, ban_reason
		FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			ds.logger.Error("Failed to close rows in ListUsers", "error", err)
		}
	}()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.AvatarPath, &u.Bio, &u.PostCount, &u.ReputationScore,
			&u.CreatedAt, &u.LastSeen, &u.IsBanned, &u.BanReason); err != nil {
			ds.logger.Error("Failed to scan user row", "error", err)
			continue
		}
		u.Avatar = u.AvatarPath.String
		users = append(users, u)
	}
	return users, rows.Err()
}
