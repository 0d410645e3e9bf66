// solforum/handlers/actions_test.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

// createThread posts a thread through the API and returns its id.
func createThread(t *testing.T, mux http.Handler, cookie *http.Cookie, title string) int64 {
	t.Helper()
	rr := doJSON(t, mux, "POST", "/threads",
		map[string]interface{}{"subforumId": 1, "title": title, "content": "opening post"}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("CreateThread returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		ThreadID int64 `json:"threadId"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode thread response: %v", err)
	}
	return resp.ThreadID
}

// createPost replies to a thread through the API and returns the post id.
func createPost(t *testing.T, mux http.Handler, cookie *http.Cookie, threadID int64, content string) int64 {
	t.Helper()
	rr := doJSON(t, mux, "POST", "/posts",
		map[string]interface{}{"threadId": threadID, "content": content}, cookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("CreatePost returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		PostID int64 `json:"postId"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode post response: %v", err)
	}
	return resp.PostID
}

func TestCreateThreadRequiresAuth(t *testing.T) {
	_, mux := setupTestApp(t)

	rr := doJSON(t, mux, "POST", "/threads",
		map[string]interface{}{"subforumId": 1, "title": "No account", "content": "hello"}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a session, got %d", rr.Code)
	}
}

func TestCreateThreadValidation(t *testing.T) {
	_, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "poster")

	rr := doJSON(t, mux, "POST", "/threads",
		map[string]interface{}{"subforumId": 1, "title": "ab", "content": "hello"}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short title, got %d", rr.Code)
	}

	rr = doJSON(t, mux, "POST", "/threads",
		map[string]interface{}{"subforumId": 1, "title": "Fine title", "content": "  "}, cookie)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank content, got %d", rr.Code)
	}

	rr = doJSON(t, mux, "POST", "/threads",
		map[string]interface{}{"subforumId": 9999, "title": "Fine title", "content": "hello"}, cookie)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for missing subforum, got %d", rr.Code)
	}
}

func TestReplyToLockedThread(t *testing.T) {
	app, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "poster")
	modCookie, modID := registerUser(t, mux, "moduser")
	promoteUser(t, app, modID, "moderator")

	threadID := createThread(t, mux, cookie, "Soon locked")

	rr := doJSON(t, mux, "PATCH", fmt.Sprintf("/admin/threads/%d", threadID),
		map[string]interface{}{"isLocked": true}, modCookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("Lock returned %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, mux, "POST", "/posts",
		map[string]interface{}{"threadId": threadID, "content": "too late"}, cookie)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 replying to a locked thread, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestReplyToMissingThread(t *testing.T) {
	_, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "poster")

	rr := doJSON(t, mux, "POST", "/posts",
		map[string]interface{}{"threadId": 424242, "content": "into the void"}, cookie)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 replying to a missing thread, got %d", rr.Code)
	}
}

func TestThreadViewFlow(t *testing.T) {
	_, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "reader")
	threadID := createThread(t, mux, cookie, "Readable thread")
	createPost(t, mux, cookie, threadID, "first reply")

	rr := doJSON(t, mux, "GET", "/threads/1", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GetThread returned %d", rr.Code)
	}
	var resp struct {
		Thread struct {
			Title      string `json:"title"`
			ReplyCount int    `json:"reply_count"`
		} `json:"thread"`
		Posts []struct {
			Content string `json:"content"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode thread view: %v", err)
	}
	if resp.Thread.Title != "Readable thread" {
		t.Errorf("Expected thread title, got %q", resp.Thread.Title)
	}
	if resp.Thread.ReplyCount != 1 || resp.Total != 2 {
		t.Errorf("Expected reply_count 1 and 2 posts, got %d and %d", resp.Thread.ReplyCount, resp.Total)
	}
}

func TestReportFlow(t *testing.T) {
	_, mux := setupTestApp(t)
	authorCookie, _ := registerUser(t, mux, "author")
	reporterCookie, _ := registerUser(t, mux, "reporter")

	threadID := createThread(t, mux, authorCookie, "Report target")
	postID := createPost(t, mux, authorCookie, threadID, "questionable")

	rr := doJSON(t, mux, "POST", "/reports",
		map[string]interface{}{"postId": postID, "reason": "bad"}, reporterCookie)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for short reason, got %d", rr.Code)
	}

	rr = doJSON(t, mux, "POST", "/reports",
		map[string]interface{}{"postId": postID, "reason": "this post is spam"}, authorCookie)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for self-report, got %d", rr.Code)
	}

	rr = doJSON(t, mux, "POST", "/reports",
		map[string]interface{}{"postId": postID, "reason": "this post is spam"}, reporterCookie)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201 for valid report, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, mux, "POST", "/reports",
		map[string]interface{}{"postId": postID, "reason": "reporting it again"}, reporterCookie)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate pending report, got %d", rr.Code)
	}
}

func TestReactionToggle(t *testing.T) {
	_, mux := setupTestApp(t)
	cookie, _ := registerUser(t, mux, "reactor")
	threadID := createThread(t, mux, cookie, "Reactable")
	postID := createPost(t, mux, cookie, threadID, "react to me")

	path := fmt.Sprintf("/posts/%d/reactions", postID)
	rr := doJSON(t, mux, "POST", path, map[string]string{"reactionType": "like"}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("Toggle returned %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Added bool `json:"added"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if !resp.Added {
		t.Error("Expected first toggle to add the reaction")
	}

	rr = doJSON(t, mux, "POST", path, map[string]string{"reactionType": "like"}, cookie)
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Added {
		t.Error("Expected second toggle to remove the reaction")
	}
}

func TestEditPostPermissions(t *testing.T) {
	_, mux := setupTestApp(t)
	authorCookie, _ := registerUser(t, mux, "author")
	otherCookie, _ := registerUser(t, mux, "other")

	threadID := createThread(t, mux, authorCookie, "Editable thread")
	postID := createPost(t, mux, authorCookie, threadID, "original words")

	path := fmt.Sprintf("/posts/%d", postID)
	rr := doJSON(t, mux, "PATCH", path,
		map[string]string{"content": "hijack attempt"}, otherCookie)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 editing another member's post, got %d", rr.Code)
	}

	rr = doJSON(t, mux, "PATCH", path,
		map[string]string{"content": "revised words"}, authorCookie)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 editing own post, got %d: %s", rr.Code, rr.Body.String())
	}
}
