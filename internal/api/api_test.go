package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/storytelling-api/internal/api"
	"github.com/storytelling-api/internal/config"
	"github.com/storytelling-api/internal/mocks"
	"github.com/storytelling-api/internal/models"
	"github.com/storytelling-api/internal/service"
	"github.com/storytelling-api/internal/token"
	"github.com/storytelling-api/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(ctx context.Context) error { return f.err }

func setupTestRouter(health api.HealthChecker) (*gin.Engine, *mocks.Store) {
	gin.SetMode(gin.TestMode)

	repos, store := mocks.NewRepositories()
	tokens := token.NewManager(token.Options{
		Secret:     []byte("router-test-secret-router-test-secret"),
		Issuer:     "storytelling-api-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, nil)
	services := service.NewServices(repos, tokens, auth.NewHasher(bcrypt.MinCost), zerolog.Nop())

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		CORS:   config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	return api.NewRouter(services, cfg, health, zerolog.Nop()), store
}

func doRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != code {
		t.Errorf("Expected error code %q, got %q", code, body["error"])
	}
	if body["message"] == "" {
		t.Error("Expected a message in the error body")
	}
}

// signup registers a user and logs in, returning the user id and access token
func signup(t *testing.T, router *gin.Engine, name, role string) (int64, string) {
	t.Helper()
	w := doRequest(router, "POST", "/api/auth/register", "", gin.H{
		"email":        name + "@example.com",
		"password":     "password123",
		"display_name": name,
		"user_role":    role,
	})
	expectStatus(t, w, http.StatusCreated)

	w = doRequest(router, "POST", "/api/auth/login", "", gin.H{
		"email":    name + "@example.com",
		"password": "password123",
	})
	expectStatus(t, w, http.StatusOK)
	var resp models.AuthResponse
	decode(t, w, &resp)
	return resp.User.ID, resp.AccessToken
}

func createStory(t *testing.T, router *gin.Engine, token, title string) models.Story {
	t.Helper()
	w := doRequest(router, "POST", "/api/stories", token, gin.H{"title": title})
	expectStatus(t, w, http.StatusCreated)
	var story models.Story
	decode(t, w, &story)
	return story
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(fakeHealth{})

	w := doRequest(router, "GET", "/health", "", nil)
	expectStatus(t, w, http.StatusOK)

	var response map[string]interface{}
	decode(t, w, &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "storytelling-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a generated X-Request-ID header")
	}
}

func TestHealthEndpoint_DatabaseDown(t *testing.T) {
	router, _ := setupTestRouter(fakeHealth{err: errors.New("connection refused")})

	w := doRequest(router, "GET", "/health", "", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)
}

func TestCORSPreflight(t *testing.T) {
	router, _ := setupTestRouter(nil)

	req := httptest.NewRequest("OPTIONS", "/api/stories", nil)
	req.Header.Set("Origin", "https://reader.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	expectStatus(t, w, http.StatusNoContent)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
}

func TestAuthRequired(t *testing.T) {
	router, _ := setupTestRouter(nil)

	w := doRequest(router, "POST", "/api/stories", "", gin.H{"title": "Anonymous"})
	expectError(t, w, http.StatusUnauthorized, "unauthorized")

	w = doRequest(router, "GET", "/api/user/me", "not-a-token", nil)
	expectError(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestRegisterLoginAndProfile(t *testing.T) {
	router, _ := setupTestRouter(nil)

	w := doRequest(router, "POST", "/api/auth/register", "", gin.H{
		"email": "admin@example.com", "password": "password123", "display_name": "root", "user_role": "ADMIN",
	})
	expectError(t, w, http.StatusUnprocessableEntity, "invalid_role")

	id, token := signup(t, router, "writer", "WRITER")

	w = doRequest(router, "POST", "/api/auth/register", "", gin.H{
		"email": "writer@example.com", "password": "password123", "display_name": "someone else",
	})
	expectError(t, w, http.StatusConflict, "conflict")

	w = doRequest(router, "POST", "/api/auth/login", "", gin.H{"email": "writer@example.com", "password": "nope-nope"})
	expectError(t, w, http.StatusUnauthorized, "invalid_credentials")

	w = doRequest(router, "GET", "/api/user/me", token, nil)
	expectStatus(t, w, http.StatusOK)
	var me map[string]interface{}
	decode(t, w, &me)
	if me["email"] != "writer@example.com" {
		t.Errorf("Expected own email, got %v", me["email"])
	}
	if _, leaked := me["password"]; leaked {
		t.Error("Password must not be serialized")
	}

	w = doRequest(router, "PATCH", "/api/user/me", token, gin.H{"bio": "Night owl"})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "GET", fmt.Sprintf("/api/users/%d", id), "", nil)
	expectStatus(t, w, http.StatusOK)
	var public map[string]interface{}
	decode(t, w, &public)
	if public["bio"] != "Night owl" {
		t.Errorf("Expected updated bio, got %v", public["bio"])
	}
	if _, leaked := public["email"]; leaked {
		t.Error("Public profile must not expose email")
	}

	w = doRequest(router, "GET", "/api/users/abc", "", nil)
	expectError(t, w, http.StatusBadRequest, "bad_request")
}

func TestRefreshAndLogout(t *testing.T) {
	router, _ := setupTestRouter(nil)
	signup(t, router, "reader", "READER")

	w := doRequest(router, "POST", "/api/auth/login", "", gin.H{"email": "reader@example.com", "password": "password123"})
	expectStatus(t, w, http.StatusOK)
	var login models.AuthResponse
	decode(t, w, &login)

	w = doRequest(router, "POST", "/api/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	expectStatus(t, w, http.StatusOK)
	var refreshed models.AuthResponse
	decode(t, w, &refreshed)
	if refreshed.AccessToken == "" {
		t.Fatal("Expected a new access token")
	}

	w = doRequest(router, "POST", "/api/auth/refresh", "", gin.H{"refresh_token": login.RefreshToken})
	expectError(t, w, http.StatusUnauthorized, "unauthorized")

	w = doRequest(router, "POST", "/api/auth/logout", refreshed.AccessToken, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = doRequest(router, "GET", "/api/user/me", refreshed.AccessToken, nil)
	expectError(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestStoryPublishScenario(t *testing.T) {
	router, _ := setupTestRouter(nil)
	_, writer := signup(t, router, "writer", "WRITER")
	_, reader := signup(t, router, "reader", "READER")

	story := createStory(t, router, writer, "The Lighthouse")
	if story.Status != models.StatusDraft {
		t.Fatalf("Expected DRAFT, got %s", story.Status)
	}
	path := fmt.Sprintf("/api/stories/%d", story.ID)

	w := doRequest(router, "GET", path, reader, nil)
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(router, "PATCH", path, writer, gin.H{"status": "PUBLISHED"})
	expectStatus(t, w, http.StatusOK)
	var raw map[string]interface{}
	decode(t, w, &raw)
	if raw["status"] != "PUBLISHED" {
		t.Errorf("Expected status PUBLISHED on the wire, got %v", raw["status"])
	}
	if raw["published_at"] == nil {
		t.Error("Expected published_at to be set")
	}

	w = doRequest(router, "GET", path, "", nil)
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "PATCH", path, reader, gin.H{"title": "Stolen"})
	expectError(t, w, http.StatusForbidden, "forbidden")
	w = doRequest(router, "PATCH", path, reader, gin.H{"title": 42})
	expectError(t, w, http.StatusForbidden, "forbidden")

	w = doRequest(router, "PATCH", path, writer, gin.H{"status": "DRAFT"})
	expectStatus(t, w, http.StatusOK)
	raw = nil
	decode(t, w, &raw)
	if raw["published_at"] != nil {
		t.Errorf("Expected published_at cleared, got %v", raw["published_at"])
	}

	w = doRequest(router, "PATCH", path, writer, gin.H{"status": "ARCHIVED"})
	expectError(t, w, http.StatusUnprocessableEntity, "invalid_status")

	w = doRequest(router, "PATCH", path, writer, gin.H{"category_id": "fiction"})
	expectError(t, w, http.StatusUnprocessableEntity, "invalid_category_id")

	w = doRequest(router, "GET", "/api/stories", "", nil)
	expectStatus(t, w, http.StatusOK)
	var page models.StoryPage
	decode(t, w, &page)
	if page.Total != 0 {
		t.Errorf("Expected no public stories, got %d", page.Total)
	}

	w = doRequest(router, "GET", "/api/stories?page=x", "", nil)
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = doRequest(router, "GET", "/api/stories?page=9223372036854775807&per_page=50", writer, nil)
	expectStatus(t, w, http.StatusOK)
	page = models.StoryPage{}
	decode(t, w, &page)
	if page.Page != models.MaxPage || len(page.Items) != 0 || page.Total != 1 {
		t.Errorf("Expected an empty last page, got page=%d items=%d total=%d", page.Page, len(page.Items), page.Total)
	}

	w = doRequest(router, "DELETE", path, writer, nil)
	expectStatus(t, w, http.StatusNoContent)
	w = doRequest(router, "GET", path, writer, nil)
	expectError(t, w, http.StatusNotFound, "not_found")
}

func TestChapterVisibility(t *testing.T) {
	router, _ := setupTestRouter(nil)
	_, writer := signup(t, router, "writer", "WRITER")
	_, other := signup(t, router, "other", "WRITER")

	story := createStory(t, router, writer, "Serial")
	storyPath := fmt.Sprintf("/api/stories/%d", story.ID)
	w := doRequest(router, "PATCH", storyPath, writer, gin.H{"status": "PUBLISHED"})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "POST", storyPath+"/chapters", writer, gin.H{"title": "Chapter One", "number": 1, "content": "It begins."})
	expectStatus(t, w, http.StatusCreated)
	var chapter models.Chapter
	decode(t, w, &chapter)
	chapterPath := fmt.Sprintf("%s/chapters/%d", storyPath, chapter.ID)

	// drafts are hidden from anonymous readers
	w = doRequest(router, "GET", chapterPath, "", nil)
	expectError(t, w, http.StatusForbidden, "forbidden")

	// only the author may change a chapter
	w = doRequest(router, "PATCH", chapterPath, other, gin.H{"status": "PUBLISHED"})
	expectError(t, w, http.StatusForbidden, "forbidden")
	w = doRequest(router, "PATCH", chapterPath, other, gin.H{"number": "one"})
	expectError(t, w, http.StatusForbidden, "forbidden")
	w = doRequest(router, "PATCH", chapterPath, writer, gin.H{"number": "one"})
	expectError(t, w, http.StatusBadRequest, "bad_request")

	w = doRequest(router, "PATCH", chapterPath, writer, gin.H{"status": "PUBLISHED"})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "GET", chapterPath, "", nil)
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "POST", chapterPath+"/comments", other, gin.H{"text": "Great start"})
	expectStatus(t, w, http.StatusCreated)

	w = doRequest(router, "GET", chapterPath+"/comments", "", nil)
	expectStatus(t, w, http.StatusOK)
	var comments []models.Comment
	decode(t, w, &comments)
	if len(comments) != 1 {
		t.Errorf("Expected 1 comment, got %d", len(comments))
	}

	w = doRequest(router, "DELETE", chapterPath, writer, nil)
	expectStatus(t, w, http.StatusNoContent)

	// soft-deleted chapters are not found, even for the author
	w = doRequest(router, "GET", chapterPath, writer, nil)
	expectError(t, w, http.StatusNotFound, "not_found")

	w = doRequest(router, "GET", storyPath+"/chapters", writer, nil)
	expectStatus(t, w, http.StatusOK)
	var chapters []models.Chapter
	decode(t, w, &chapters)
	if len(chapters) != 0 {
		t.Errorf("Expected no visible chapters, got %d", len(chapters))
	}

	w = doRequest(router, "DELETE", chapterPath+"?hard=maybe", writer, nil)
	expectError(t, w, http.StatusBadRequest, "bad_request")
}

func TestDuplicateFollow(t *testing.T) {
	router, _ := setupTestRouter(nil)
	aliceID, alice := signup(t, router, "alice", "READER")
	bobID, _ := signup(t, router, "bob", "WRITER")

	for i := 0; i < 2; i++ {
		w := doRequest(router, "POST", "/api/follows", alice, gin.H{"following_id": bobID})
		expectStatus(t, w, http.StatusCreated)
	}

	w := doRequest(router, "GET", fmt.Sprintf("/api/follows?follower_id=%d", aliceID), "", nil)
	expectStatus(t, w, http.StatusOK)
	var edges []models.Follower
	decode(t, w, &edges)
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(edges))
	}

	w = doRequest(router, "POST", "/api/follows", alice, gin.H{"following_id": aliceID})
	expectError(t, w, http.StatusBadRequest, "invalid_follow")

	w = doRequest(router, "DELETE", fmt.Sprintf("/api/follows?following_id=%d", bobID), alice, nil)
	expectStatus(t, w, http.StatusNoContent)

	w = doRequest(router, "DELETE", "/api/follows", alice, nil)
	expectError(t, w, http.StatusBadRequest, "missing_fields")
}

func TestTaxonomyEndpoints(t *testing.T) {
	router, _ := setupTestRouter(nil)
	_, writer := signup(t, router, "writer", "WRITER")

	w := doRequest(router, "POST", "/api/categories", writer, gin.H{"name": "Science Fiction"})
	expectStatus(t, w, http.StatusCreated)
	var created models.Category
	decode(t, w, &created)
	if created.Slug != "science-fiction" {
		t.Errorf("Expected slug science-fiction, got %s", created.Slug)
	}

	w = doRequest(router, "POST", "/api/categories", writer, gin.H{"name": "Science Fiction"})
	expectStatus(t, w, http.StatusOK)
	var again models.Category
	decode(t, w, &again)
	if again.ID != created.ID {
		t.Errorf("Expected the same category id %d, got %d", created.ID, again.ID)
	}

	w = doRequest(router, "POST", "/api/tags", writer, gin.H{"name": "Space Opera"})
	expectStatus(t, w, http.StatusCreated)
	var tag models.Tag
	decode(t, w, &tag)

	w = doRequest(router, "POST", "/api/stories", writer, gin.H{
		"title": "Tagged", "category_id": created.ID, "tags": []int64{tag.ID},
	})
	expectStatus(t, w, http.StatusCreated)
	var story models.Story
	decode(t, w, &story)
	w = doRequest(router, "PATCH", fmt.Sprintf("/api/stories/%d", story.ID), writer, gin.H{"status": "PUBLISHED"})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "GET", "/api/stories?tag=Space+Opera", "", nil)
	expectStatus(t, w, http.StatusOK)
	var page models.StoryPage
	decode(t, w, &page)
	if page.Total != 1 {
		t.Errorf("Expected 1 story tagged space-opera, got %d", page.Total)
	}

	w = doRequest(router, "POST", "/api/stories", writer, gin.H{"title": "Bad tags", "tags": []int64{9999}})
	expectError(t, w, http.StatusUnprocessableEntity, "invalid_tags")

	w = doRequest(router, "GET", "/api/categories", "", nil)
	expectStatus(t, w, http.StatusOK)
}

func TestStoryViews(t *testing.T) {
	router, _ := setupTestRouter(nil)
	_, writer := signup(t, router, "writer", "WRITER")
	_, reader := signup(t, router, "reader", "READER")

	story := createStory(t, router, writer, "Viewed")
	path := fmt.Sprintf("/api/stories/%d", story.ID)
	w := doRequest(router, "PATCH", path, writer, gin.H{"status": "PUBLISHED"})
	expectStatus(t, w, http.StatusOK)

	w = doRequest(router, "POST", path+"/view", "", nil)
	expectError(t, w, http.StatusUnauthorized, "unauthorized")

	for i := 0; i < 3; i++ {
		w = doRequest(router, "POST", path+"/view", reader, nil)
		expectStatus(t, w, http.StatusOK)
	}
	var view models.StoryView
	decode(t, w, &view)
	if view.ViewCount != 3 {
		t.Errorf("Expected view_count 3, got %d", view.ViewCount)
	}

	w = doRequest(router, "GET", "/api/user/me/recent-stories", reader, nil)
	expectStatus(t, w, http.StatusOK)
	var recent []models.RecentStory
	decode(t, w, &recent)
	if len(recent) != 1 || recent[0].Title != "Viewed" {
		t.Errorf("Expected the viewed story in recent stories, got %+v", recent)
	}
}
