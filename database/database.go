// solforum/database/database.go
package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"solforum/cache"
	"solforum/models"
	"solforum/utils"

	_ "github.com/mattn/go-sqlite3"
)

// Sentinel errors. Handlers map these to HTTP status codes.
var (
	ErrNotFound    = errors.New("not found")
	ErrLocked      = errors.New("thread is locked")
	ErrForbidden   = errors.New("forbidden")
	ErrValidation  = errors.New("validation failed")
	ErrConflict    = errors.New("conflict")
	ErrHasChildren = errors.New("has children")
)

// DatabaseService is the central struct for all database operations.
type DatabaseService struct {
	DB     *sql.DB
	logger *slog.Logger
	dsn    string
	cache  *cache.Client
}

// InitDB connects to the database, runs migrations, and seeds default data.
func InitDB(dataSourceName string, logger *slog.Logger) (*DatabaseService, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Run the base schema to ensure all tables exist.
	if _, err = db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to execute base schema: %w", err)
	}

	// Run versioned migrations
	if err := runMigrations(db, logger); err != nil {
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	// Seed database if empty
	var categoryCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&categoryCount); err == nil && categoryCount == 0 {
		if _, err := db.Exec("INSERT INTO categories (id, name, description, sort_order) VALUES (1, 'General', 'General discussion', 0)"); err != nil {
			return nil, fmt.Errorf("failed to seed categories: %w", err)
		}
	}
	var subforumCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM subforums").Scan(&subforumCount); err == nil && subforumCount == 0 {
		_, err = db.Exec("INSERT INTO subforums (category_id, name, description, sort_order) VALUES (1, 'Open Discussion', 'Talk about anything.', 0)")
		if err != nil {
			return nil, fmt.Errorf("failed to seed subforums: %w", err)
		}
	}

	if err := seedSettings(db); err != nil {
		return nil, fmt.Errorf("failed to seed settings: %w", err)
	}

	logger.Info("Database initialized.")

	return &DatabaseService{
		DB:     db,
		logger: logger,
		dsn:    dataSourceName,
	}, nil
}

// runMigrations applies all un-applied migrations.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var latestVersion uint
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&latestVersion)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("could not get db version: %w", err)
	}

	logger.Info("Current database schema version", "version", latestVersion)

	for _, m := range allMigrations {
		if m.Version > latestVersion {
			logger.Info("Applying migration", "version", m.Version)
			tx, err := db.Begin()
			if err != nil {
				return err
			}

			if _, err := tx.Exec(m.Query); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to apply migration v%d: %w", m.Version, err)
			}
			if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)", m.Version, utils.GetSQLTime()); err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					logger.Error("Failed to rollback migration record", "version", m.Version, "error", rerr)
				}
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}

			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit migration v%d: %w", m.Version, err)
			}
			logger.Info("Successfully applied migration", "version", m.Version)
		}
	}
	return nil
}

// rollback logs unless the transaction is already committed.
func (ds *DatabaseService) rollback(tx *sql.Tx, op string) {
	if rerr := tx.Rollback(); rerr != nil && rerr != sql.ErrTxDone {
		ds.logger.Error("Failed to rollback transaction", "op", op, "error", rerr)
	}
}

// LogModAction records a moderator's action to the database within an existing transaction.
func LogModAction(tx *sql.Tx, moderatorID, action, targetType, targetID, reason string) error {
	_, err := tx.Exec(
		"INSERT INTO moderation_log (moderator_id, action, target_type, target_id, reason, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		moderatorID, action, targetType, targetID, reason, utils.GetSQLTime())
	if err != nil {
		return fmt.Errorf("failed to log moderation action: %w", err)
	}
	return nil
}

// CreateThread inserts a thread with its opening post and updates every
// denormalized counter in one transaction.
func (ds *DatabaseService) CreateThread(subforumID int64, userID, username, title, content string) (int64, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer ds.rollback(tx, "CreateThread")

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM subforums WHERE id = ?", subforumID).Scan(&exists); err != nil {
		return 0, err
	}
	if exists == 0 {
		return 0, fmt.Errorf("subforum %d: %w", subforumID, ErrNotFound)
	}

	now := utils.GetSQLTime()

	res, err := tx.Exec(`
		INSERT INTO threads (subforum_id, user_id, title, created_at, last_post_at, last_post_user_id, last_post_username)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		subforumID, userID, title, now, now, userID, username)
	if err != nil {
		return 0, fmt.Errorf("failed to insert thread: %w", err)
	}
	threadID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(
		"INSERT INTO posts (thread_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		threadID, userID, content, now); err != nil {
		return 0, fmt.Errorf("failed to insert opening post: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE subforums
		SET thread_count = thread_count + 1, post_count = post_count + 1,
		    last_thread_id = ?, last_post_at = ?, last_post_username = ?
		WHERE id = ?`, threadID, now, username, subforumID); err != nil {
		return 0, fmt.Errorf("failed to update subforum counters: %w", err)
	}

	if _, err := tx.Exec("UPDATE users SET post_count = post_count + 1 WHERE id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to update user post count: %w", err)
	}

	return threadID, tx.Commit()
}

// CreateReply appends a post to a thread and bumps the reply counters and
// last-post pointers. Locked threads reject replies.
func (ds *DatabaseService) CreateReply(threadID int64, userID, username, content string) (int64, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return 0, err
	}
	defer ds.rollback(tx, "CreateReply")

	var subforumID int64
	var locked bool
	err = tx.QueryRow("SELECT subforum_id, is_locked FROM threads WHERE id = ?", threadID).Scan(&subforumID, &locked)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	if locked {
		return 0, ErrLocked
	}

	now := utils.GetSQLTime()

	res, err := tx.Exec(
		"INSERT INTO posts (thread_id, user_id, content, created_at) VALUES (?, ?, ?, ?)",
		threadID, userID, content, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert post: %w", err)
	}
	postID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(`
		UPDATE threads
		SET reply_count = reply_count + 1, last_post_at = ?, last_post_user_id = ?, last_post_username = ?
		WHERE id = ?`, now, userID, username, threadID); err != nil {
		return 0, fmt.Errorf("failed to update thread counters: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE subforums
		SET post_count = post_count + 1, last_thread_id = ?, last_post_at = ?, last_post_username = ?
		WHERE id = ?`, threadID, now, username, subforumID); err != nil {
		return 0, fmt.Errorf("failed to update subforum counters: %w", err)
	}

	if _, err := tx.Exec("UPDATE users SET post_count = post_count + 1 WHERE id = ?", userID); err != nil {
		return 0, fmt.Errorf("failed to update user post count: %w", err)
	}

	return postID, tx.Commit()
}

// EditPost replaces a post's content and stamps the edit. Non-staff callers
// may only edit their own posts.
func (ds *DatabaseService) EditPost(postID int64, editor models.SessionUser, content string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "EditPost")

	var authorID string
	err = tx.QueryRow("SELECT user_id FROM posts WHERE id = ?", postID).Scan(&authorID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if authorID != editor.ID && !editor.IsStaff() {
		return ErrForbidden
	}

	if _, err := tx.Exec(
		"UPDATE posts SET content = ?, edited_at = ?, is_edited = 1 WHERE id = ?",
		content, utils.GetSQLTime(), postID); err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}

	if authorID != editor.ID {
		if err := LogModAction(tx, editor.ID, "edited post", "post", fmt.Sprint(postID), ""); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// isOpeningPost reports whether postID is the earliest post of its thread.
// Ties on created_at fall to the lowest id.
func isOpeningPost(tx *sql.Tx, threadID, postID int64) (bool, error) {
	var opID int64
	err := tx.QueryRow(
		"SELECT id FROM posts WHERE thread_id = ? ORDER BY created_at ASC, id ASC LIMIT 1",
		threadID).Scan(&opID)
	if err != nil {
		return false, err
	}
	return opID == postID, nil
}

// DeletePost removes a single post. Deleting a thread's opening post removes
// the whole thread. Returns whether the containing thread was deleted.
func (ds *DatabaseService) DeletePost(postID int64, moderatorID, reason string) (threadDeleted bool, err error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return false, err
	}
	defer ds.rollback(tx, "DeletePost")

	var threadID int64
	var authorID string
	err = tx.QueryRow("SELECT thread_id, user_id FROM posts WHERE id = ?", postID).Scan(&threadID, &authorID)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return false, err
	}

	isOp, err := isOpeningPost(tx, threadID, postID)
	if err != nil {
		return false, err
	}

	if isOp {
		if err := deleteThreadTx(tx, threadID); err != nil {
			return false, err
		}
		if err := LogModAction(tx, moderatorID, "deleted thread (via OP post)", "thread", fmt.Sprint(threadID), reason); err != nil {
			return false, err
		}
		return true, tx.Commit()
	}

	if _, err := tx.Exec("DELETE FROM reports WHERE post_id = ?", postID); err != nil {
		return false, fmt.Errorf("failed to delete reports: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM reactions WHERE post_id = ?", postID); err != nil {
		return false, fmt.Errorf("failed to delete reactions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM posts WHERE id = ?", postID); err != nil {
		return false, fmt.Errorf("failed to delete post: %w", err)
	}

	// Floor at zero so a drifted counter can never go negative.
	if _, err := tx.Exec(
		"UPDATE threads SET reply_count = MAX(0, reply_count - 1) WHERE id = ?", threadID); err != nil {
		return false, fmt.Errorf("failed to update reply count: %w", err)
	}
	if _, err := tx.Exec(`
		UPDATE subforums SET post_count = MAX(0, post_count - 1)
		WHERE id = (SELECT subforum_id FROM threads WHERE id = ?)`, threadID); err != nil {
		return false, fmt.Errorf("failed to update subforum post count: %w", err)
	}

	if err := LogModAction(tx, moderatorID, "deleted post", "post", fmt.Sprint(postID), reason); err != nil {
		return false, err
	}

	return false, tx.Commit()
}

// DeleteThread removes a thread with all its posts, reactions, and reports,
// then rolls the subforum counters back.
func (ds *DatabaseService) DeleteThread(threadID int64, moderatorID, reason string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "DeleteThread")

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM threads WHERE id = ?", threadID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}

	if err := deleteThreadTx(tx, threadID); err != nil {
		return err
	}
	if err := LogModAction(tx, moderatorID, "deleted thread", "thread", fmt.Sprint(threadID), reason); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteThreadTx cascades a thread deletion inside an open transaction.
// Subforum counters drop by the thread itself plus all of its posts. The
// post count comes from the posts table, not reply_count, so a drifted
// counter cannot poison the subforum decrement.
func deleteThreadTx(tx *sql.Tx, threadID int64) error {
	var subforumID int64
	if err := tx.QueryRow("SELECT subforum_id FROM threads WHERE id = ?", threadID).Scan(&subforumID); err != nil {
		return err
	}
	var postCount int
	if err := tx.QueryRow("SELECT COUNT(*) FROM posts WHERE thread_id = ?", threadID).Scan(&postCount); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM reports WHERE post_id IN (SELECT id FROM posts WHERE thread_id = ?)", threadID); err != nil {
		return fmt.Errorf("failed to delete thread reports: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM reactions WHERE post_id IN (SELECT id FROM posts WHERE thread_id = ?)", threadID); err != nil {
		return fmt.Errorf("failed to delete thread reactions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM posts WHERE thread_id = ?", threadID); err != nil {
		return fmt.Errorf("failed to delete thread posts: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM threads WHERE id = ?", threadID); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	if _, err := tx.Exec(`
		UPDATE subforums
		SET thread_count = MAX(0, thread_count - 1), post_count = MAX(0, post_count - ?)
		WHERE id = ?`, postCount, subforumID); err != nil {
		return fmt.Errorf("failed to update subforum counters: %w", err)
	}
	return nil
}

// ThreadUpdate carries the optional fields of a moderator thread edit. Nil
// fields are left untouched.
type ThreadUpdate struct {
	IsSticky       *bool
	IsLocked       *bool
	IsAnnouncement *bool
	SubforumID     *int64
	Title          *string
}

// UpdateThread applies sticky, lock, announcement, title, and move changes.
// Moving a thread rebalances counters on both subforums.
func (ds *DatabaseService) UpdateThread(threadID int64, upd ThreadUpdate, moderatorID string) error {
	tx, err := ds.DB.Begin()
	if err != nil {
		return err
	}
	defer ds.rollback(tx, "UpdateThread")

	var oldSubforum int64
	var replyCount int
	var wasSticky, wasLocked bool
	err = tx.QueryRow("SELECT subforum_id, reply_count, is_sticky, is_locked FROM threads WHERE id = ?", threadID).
		Scan(&oldSubforum, &replyCount, &wasSticky, &wasLocked)
	if err == sql.ErrNoRows {
		return fmt.Errorf("thread %d: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	var actions []string

	if upd.IsSticky != nil && *upd.IsSticky != wasSticky {
		if _, err := tx.Exec("UPDATE threads SET is_sticky = ? WHERE id = ?", *upd.IsSticky, threadID); err != nil {
			return err
		}
		if *upd.IsSticky {
			actions = append(actions, "stickied")
		} else {
			actions = append(actions, "unstickied")
		}
	}
	if upd.IsLocked != nil && *upd.IsLocked != wasLocked {
		if _, err := tx.Exec("UPDATE threads SET is_locked = ? WHERE id = ?", *upd.IsLocked, threadID); err != nil {
			return err
		}
		if *upd.IsLocked {
			actions = append(actions, "locked")
		} else {
			actions = append(actions, "unlocked")
		}
	}
	if upd.IsAnnouncement != nil {
		if _, err := tx.Exec("UPDATE threads SET is_announcement = ? WHERE id = ?", *upd.IsAnnouncement, threadID); err != nil {
			return err
		}
	}
	if upd.Title != nil {
		if _, err := tx.Exec("UPDATE threads SET title = ? WHERE id = ?", *upd.Title, threadID); err != nil {
			return err
		}
		actions = append(actions, "renamed")
	}

	if upd.SubforumID != nil && *upd.SubforumID != oldSubforum {
		newSubforum := *upd.SubforumID
		var exists int
		if err := tx.QueryRow("SELECT COUNT(*) FROM subforums WHERE id = ?", newSubforum).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("target subforum %d not found: %w", newSubforum, ErrValidation)
		}

		if _, err := tx.Exec("UPDATE threads SET subforum_id = ? WHERE id = ?", newSubforum, threadID); err != nil {
			return err
		}
		// The thread carries reply_count+1 posts to the new subforum.
		if _, err := tx.Exec(`
			UPDATE subforums
			SET thread_count = MAX(0, thread_count - 1), post_count = MAX(0, post_count - ?)
			WHERE id = ?`, replyCount+1, oldSubforum); err != nil {
			return fmt.Errorf("failed to update source subforum: %w", err)
		}
		if _, err := tx.Exec(`
			UPDATE subforums
			SET thread_count = thread_count + 1, post_count = post_count + ?
			WHERE id = ?`, replyCount+1, newSubforum); err != nil {
			return fmt.Errorf("failed to update destination subforum: %w", err)
		}
		actions = append(actions, "moved")
	}

	if len(actions) > 0 {
		if err := LogModAction(tx, moderatorID, strings.Join(actions, ", "), "thread", fmt.Sprint(threadID), ""); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ToggleReaction adds the reaction if absent, removes it if present.
// Returns true if the reaction exists after the call.
func (ds *DatabaseService) ToggleReaction(postID int64, userID, reactionType string) (bool, error) {
	tx, err := ds.DB.Begin()
	if err != nil {
		return false, err
	}
	defer ds.rollback(tx, "ToggleReaction")

	var exists int
	if err := tx.QueryRow("SELECT COUNT(*) FROM posts WHERE id = ?", postID).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	res, err := tx.Exec(
		"DELETE FROM reactions WHERE post_id = ? AND user_id = ? AND reaction_type = ?",
		postID, userID, reactionType)
	if err != nil {
		return false, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if removed > 0 {
		return false, tx.Commit()
	}

	if _, err := tx.Exec(
		"INSERT INTO reactions (post_id, user_id, reaction_type, created_at) VALUES (?, ?, ?, ?)",
		postID, userID, reactionType, utils.GetSQLTime()); err != nil {
		return false, fmt.Errorf("failed to insert reaction: %w", err)
	}
	return true, tx.Commit()
}
