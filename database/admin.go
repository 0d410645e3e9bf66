// solforum/database/admin.go
package database

import (
	"database/sql"
	"fmt"

	"solforum/models"
	"solforum/utils"
)

// --- Category and Subforum Management ---

// CreateCategory appends a category at the end of the sort order.
func (ds *DatabaseService) CreateCategory(name, description string) (int64, error) {
	res, err := ds.DB.Exec(`
		INSERT INTO categories (name, description, sort_order)
		VALUES (?, ?, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM categories))`,
		name, description)
	if err != nil {
		return 0, fmt.Errorf("failed to create category: %w", err)
	}
	return res.LastInsertId()
}

// UpdateCategory edits name, description, and sort order.
func (ds *DatabaseService) UpdateCategory(id int64, name, description string, sortOrder int) error {
	res, err := ds.DB.Exec(
		"UPDATE categories SET name = ?, description = ?, sort_order = ? WHERE id = ?",
		name, description, sortOrder, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteCategory refuses to delete a category that still has subforums.
func (ds *DatabaseService) DeleteCategory(id int64, moderatorID string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "DeleteCategory")

	var children int
	if err := tx.QueryRow("SELECT COUNT(*) FROM subforums WHERE category_id = ?", id).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("category %d has %d subforums: %w", id, children, ErrHasChildren)
	}

	res, err := tx.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("category %d: %w", id, ErrNotFound)
	}

	if err := LogModAction(tx, moderatorID, "deleted category", "category", fmt.Sprint(id), ""); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateSubforum appends a subforum at the end of its category's sort order.
func (ds *DatabaseService) CreateSubforum(categoryID int64, name, description, iconColor, iconLabel string) (int64, error) {
	var exists int
	if err := ds.DB.QueryRow("SELECT COUNT(*) FROM categories WHERE id = ?", categoryID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, fmt.Errorf("category %d: %w", categoryID, ErrNotFound)
	}

	if iconColor == "" {
		iconColor = "#4A9B9B"
	}
	if iconLabel == "" {
		iconLabel = "SF"
	}

	res, err := ds.DB.Exec(`
		INSERT INTO subforums (category_id, name, description, icon_color, icon_label, sort_order)
		VALUES (?, ?, ?, ?, ?, (SELECT COALESCE(MAX(sort_order), -1) + 1 FROM subforums WHERE category_id = ?))`,
		categoryID, name, description, iconColor, iconLabel, categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to create subforum: %w", err)
	}
	return res.LastInsertId()
}

// UpdateSubforum edits the descriptive fields of a subforum.
func (ds *DatabaseService) UpdateSubforum(id, categoryID int64, name, description, iconColor, iconLabel string, sortOrder int) error {
	res, err := ds.DB.Exec(`
		UPDATE subforums SET category_id = ?, name = ?, description = ?, icon_color = ?, icon_label = ?, sort_order = ?
		WHERE id = ?`,
		categoryID, name, description, iconColor, iconLabel, sortOrder, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subforum %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteSubforum refuses to delete a subforum that still has threads.
func (ds *DatabaseService) DeleteSubforum(id int64, moderatorID string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "DeleteSubforum")

	var children int
	if err := tx.QueryRow("SELECT COUNT(*) FROM threads WHERE subforum_id = ?", id).Scan(&children); err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("subforum %d has %d threads: %w", id, children, ErrHasChildren)
	}

	res, err := tx.Exec("DELETE FROM subforums WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("subforum %d: %w", id, ErrNotFound)
	}

	if err := LogModAction(tx, moderatorID, "deleted subforum", "subforum", fmt.Sprint(id), ""); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Reports ---

// CreateReport files a report against a post. Users cannot report their own
// posts or file a second pending report for the same post.
func (ds *DatabaseService) CreateReport(postID int64, reporterID, reason string) (int64, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer ds.rollback(tx, "CreateReport")

	var authorID string
	err = tx.QueryRow("SELECT user_id FROM posts WHERE id = ?", postID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if authorID == reporterID {
		return 0, fmt.Errorf("cannot report your own post: %w", ErrValidation)
	}

	var pending int
	if err := tx.QueryRow(
		"SELECT COUNT(*) FROM reports WHERE post_id = ? AND reporter_id = ? AND status = 'pending'",
		postID, reporterID).Scan(&pending); err != nil {
		return 0, err
	}
	if pending > 0 {
		return 0, fmt.Errorf("report already pending: %w", ErrConflict)
	}

	res, err := tx.Exec(
		"INSERT INTO reports (post_id, reporter_id, reason, created_at) VALUES (?, ?, ?, ?)",
		postID, reporterID, reason, utils.GetSQLTime())
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}
	reportID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return reportID, tx.Commit()
}

// ReviewReport resolves a pending report as reviewed or dismissed.
func (ds *DatabaseService) ReviewReport(reportID int64, reviewerID, status string) error {
	if status != models.ReportReviewed && status != models.ReportDismissed {
		return fmt.Errorf("invalid report status %q: %w", status, ErrValidation)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "ReviewReport")

	res, err := tx.Exec(
		"UPDATE reports SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ? AND status = 'pending'",
		status, reviewerID, utils.GetSQLTime(), reportID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM reports WHERE id = ?", reportID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("report %d: %w", reportID, ErrNotFound)
		}
		return fmt.Errorf("report %d already reviewed: %w", reportID, ErrConflict)
	}

	if err := LogModAction(tx, reviewerID, status+" report", "report", fmt.Sprint(reportID), ""); err != nil {
		return err
	}
	return tx.Commit()
}

// --- User Administration ---

// UserUpdate carries the optional fields of an admin user edit.
type UserUpdate struct {
	Role      *string
	IsBanned  *bool
	BanReason *string
}

// UpdateUser changes role or ban state. Admins cannot modify their own
// account through this path.
func (ds *DatabaseService) UpdateUser(userID string, upd UserUpdate, admin models.SessionUser) error {
	if userID == admin.ID {
		return fmt.Errorf("cannot modify your own account: %w", ErrValidation)
	}

	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "UpdateUser")

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	if upd.Role != nil {
		if !models.ValidRole(*upd.Role) {
			return fmt.Errorf("invalid role %q: %w", *upd.Role, ErrValidation)
		}
		if _, err := tx.Exec("UPDATE users SET role = ? WHERE id = ?", *upd.Role, userID); err != nil {
			return err
		}
		if err := LogModAction(tx, admin.ID, "changed role to "+*upd.Role, "user", userID, ""); err != nil {
			return err
		}
	}

	if upd.IsBanned != nil {
		reason := ""
		if upd.BanReason != nil {
			reason = *upd.BanReason
		}
		if *upd.IsBanned {
			if _, err := tx.Exec("UPDATE users SET is_banned = 1, ban_reason = ? WHERE id = ?", reason, userID); err != nil {
				return err
			}
			if err := LogModAction(tx, admin.ID, "banned user", "user", userID, reason); err != nil {
				return err
			}
		} else {
			if _, err := tx.Exec("UPDATE users SET is_banned = 0, ban_reason = '' WHERE id = ?", userID); err != nil {
				return err
			}
			if err := LogModAction(tx, admin.ID, "unbanned user", "user", userID, ""); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// UpdateProfile edits the caller's own bio.
func (ds *DatabaseService) UpdateProfile(userID, bio string) error {
	res, err := ds.DB.Exec("UPDATE users SET bio = ? WHERE id = ?", bio, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// SetAvatarPath stores a new avatar location and returns the previous one so
// the caller can clean up the old file.
func (ds *DatabaseService) SetAvatarPath(userID, path string) (old string, err error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return "", err
	}
	defer ds.rollback(tx, "SetAvatarPath")

	var prev sql.NullString
	err = tx.QueryRow("SELECT avatar_path FROM users WHERE id = ?", userID).Scan(&prev)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", err
	}

	if _, err := tx.Exec("UPDATE users SET avatar_path = ? WHERE id = ?", path, userID); err != nil {
		return "", err
	}
	return prev.String, tx.Commit()
}
