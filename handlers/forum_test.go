// solforum/handlers/forum_test.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestForumIndex(t *testing.T) {
	_, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "poster")
	createThread(t, mux, cookie, "Visible on the index")

	rr := doJSON(t, mux, "GET", "/forum", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Forum index returned %d", rr.Code)
	}
	var resp struct {
		Categories []struct {
			Name      string `json:"name"`
			Subforums []struct {
				ThreadCount int `json:"thread_count"`
				PostCount   int `json:"post_count"`
			} `json:"subforums"`
		} `json:"categories"`
		Stats struct {
			TotalThreads int    `json:"total_threads"`
			TotalMembers int    `json:"total_members"`
			LatestMember string `json:"latest_member"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode forum index: %v", err)
	}
	if len(resp.Categories) == 0 || len(resp.Categories[0].Subforums) == 0 {
		t.Fatal("Expected the seeded category tree")
	}
	sf := resp.Categories[0].Subforums[0]
	if sf.ThreadCount != 1 || sf.PostCount != 1 {
		t.Errorf("Expected subforum counters (1,1), got (%d,%d)", sf.ThreadCount, sf.PostCount)
	}
	if resp.Stats.TotalThreads != 1 || resp.Stats.LatestMember != "poster" {
		t.Errorf("Unexpected stats: %+v", resp.Stats)
	}
}

func TestListSubforums(t *testing.T) {
	_, mux := setupTestApp(t)

	rr := doJSON(t, mux, "GET", "/subforums", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("List subforums returned %d", rr.Code)
	}
	var resp struct {
		Subforums []struct {
			Name         string `json:"name"`
			CategoryName string `json:"category_name"`
		} `json:"subforums"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode subforum list: %v", err)
	}
	if len(resp.Subforums) != 1 || resp.Subforums[0].CategoryName != "General" {
		t.Errorf("Expected the seeded subforum with its category, got %+v", resp.Subforums)
	}
}

func TestThreadPostsEndpoint(t *testing.T) {
	app, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "poster")
	threadID := createThread(t, mux, cookie, "Paged thread")
	createPost(t, mux, cookie, threadID, "a reply")

	rr := doJSON(t, mux, "GET", fmt.Sprintf("/threads/%d/posts", threadID), nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Thread posts returned %d", rr.Code)
	}
	var resp struct {
		Posts []struct {
			Content string `json:"content"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode posts page: %v", err)
	}
	if resp.Total != 2 || len(resp.Posts) != 2 {
		t.Errorf("Expected 2 posts, got total=%d len=%d", resp.Total, len(resp.Posts))
	}

	// The posts-only read must not count a view.
	var views int
	if err := app.db.DB.QueryRow("SELECT view_count FROM threads WHERE id = ?", threadID).Scan(&views); err != nil {
		t.Fatalf("Failed to read view_count: %v", err)
	}
	if views != 0 {
		t.Errorf("Expected view_count 0 after posts-only reads, got %d", views)
	}

	rr = doJSON(t, mux, "GET", "/threads/424242/posts", nil, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing thread's posts, got %d", rr.Code)
	}
}

func TestStaffEditPostEndpoint(t *testing.T) {
	app, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "author")
	modCookie, modID := registerUser(t, mux, "moduser")
	promoteUser(t, app, modID, "moderator")

	threadID := createThread(t, mux, cookie, "Needs cleanup")
	postID := createPost(t, mux, cookie, threadID, "rule-breaking words")

	rr := doJSON(t, mux, "PATCH", fmt.Sprintf("/admin/posts/%d", postID),
		map[string]string{"content": "cleaned up"}, modCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("Staff edit returned %d: %s", rr.Code, rr.Body.String())
	}

	var content string
	var isEdited bool
	if err := app.db.DB.QueryRow("SELECT content, is_edited FROM posts WHERE id = ?", postID).Scan(&content, &isEdited); err != nil {
		t.Fatalf("Failed to read post: %v", err)
	}
	if content != "cleaned up" || !isEdited {
		t.Errorf("Expected edited content, got %q (is_edited=%v)", content, isEdited)
	}
}
