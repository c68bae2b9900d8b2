package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/portfolio-service/internal/core/repository"
	"github.com/duynhne/portfolio-service/internal/core/storage"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
)

type testServer struct {
	router *gin.Engine
	auth   *logicv1.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := repository.NewMemoryUserRepository()
	images, err := storage.NewLocalImageStore(t.TempDir(), "http://test.local/uploads")
	if err != nil {
		t.Fatalf("NewLocalImageStore: %v", err)
	}
	tokens := logicv1.NewTokenIssuer("handler-test-secret-123", time.Hour, "portfolio-test")
	auth := logicv1.NewAuthService(users, repository.NewMemorySessionRepository(users), tokens, images)

	h := NewHandler(Services{
		Auth:     auth,
		Projects: logicv1.NewProjectService(repository.NewMemoryProjectRepository(), images),
		Skills:   logicv1.NewSkillService(repository.NewMemorySkillRepository()),
		Contacts: logicv1.NewContactService(repository.NewMemoryContactRepository()),
	}, 1<<20)

	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return &testServer{router: r, auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.serve(t, req)
}

func (s *testServer) serve(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	return w.Code, out
}

func (s *testServer) register(t *testing.T, name, email string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret1",
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: %d %v", email, code, body)
	}
	return body["token"].(string)
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	if _, err := s.auth.CreateAdmin(context.Background(), "Owner", "owner@example.com", "secret1"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	code, body := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "secret1",
	})
	if code != http.StatusOK {
		t.Fatalf("admin login: %d %v", code, body)
	}
	return body["token"].(string)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "Ada", "ada@example.com")

	code, body := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "secret1",
	})
	if code != http.StatusBadRequest || body["message"] != "User already exists with this email" {
		t.Fatalf("duplicate register: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope!!"})
	if code != http.StatusUnauthorized || body["message"] != "Invalid credentials" {
		t.Fatalf("bad login: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %v", code, body)
	}
	user := body["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Fatalf("me returned %v", user)
	}

	code, body = s.do(t, http.MethodPatch, "/api/auth/updateprofile", token, map[string]any{"bio": "hello"})
	if code != http.StatusOK || body["user"].(map[string]any)["bio"] != "hello" {
		t.Fatalf("updateprofile: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong!", "newPassword": "secret2",
	})
	if code != http.StatusUnauthorized || body["message"] != "Current password is incorrect" {
		t.Fatalf("change-password: %d %v", code, body)
	}
}

func TestDuplicateEmailOnProfileUpdate(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "Ada", "ada@example.com")
	token := s.register(t, "Bob", "bob@example.com")

	code, body := s.do(t, http.MethodPatch, "/api/auth/updateprofile", token, map[string]any{"email": "ada@example.com"})
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %v", code, body)
	}
	if body["message"] != "Duplicate value entered for email field, please choose another value" {
		t.Fatalf("unexpected message %v", body["message"])
	}
}

func TestRequireAuth(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing", header: "", want: "Authentication failed: No token provided"},
		{name: "wrong scheme", header: "Basic abc", want: "Authentication failed: No token provided"},
		{name: "garbage", header: "Bearer not.a.jwt", want: "Authentication failed: Invalid token format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			code, body := s.serve(t, req)
			if code != http.StatusUnauthorized || body["message"] != tt.want {
				t.Fatalf("got %d %v, want 401 %q", code, body, tt.want)
			}
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	userToken := s.register(t, "Visitor", "visitor@example.com")
	adminToken := s.adminToken(t)

	project := map[string]any{"title": "Portfolio", "description": "Site", "technologies": []string{"Go"}, "featured": true}

	code, body := s.do(t, http.MethodPost, "/api/projects", userToken, project)
	if code != http.StatusForbidden || body["currentRole"] != "user" {
		t.Fatalf("non-admin create: %d %v", code, body)
	}
	code, _ = s.do(t, http.MethodPost, "/api/projects", "", project)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: %d", code)
	}

	code, body = s.do(t, http.MethodPost, "/api/projects", adminToken, project)
	if code != http.StatusCreated {
		t.Fatalf("admin create: %d %v", code, body)
	}
	id := body["project"].(map[string]any)["_id"].(string)

	code, body = s.do(t, http.MethodPatch, "/api/projects/"+id, adminToken, map[string]any{"order": 2})
	if code != http.StatusOK {
		t.Fatalf("patch: %d %v", code, body)
	}
	patched := body["project"].(map[string]any)
	if patched["title"] != "Portfolio" || patched["order"].(float64) != 2 {
		t.Fatalf("patch should merge onto stored project: %v", patched)
	}

	code, body = s.do(t, http.MethodGet, "/api/projects?featured=true&sort=-createdAt", "", nil)
	if code != http.StatusOK || body["count"].(float64) != 1 || len(body["projects"].([]any)) != 1 {
		t.Fatalf("list: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodGet, "/api/projects/not-a-uuid", "", nil)
	if code != http.StatusNotFound || body["message"] != "No project found with id: not-a-uuid" {
		t.Fatalf("malformed id: %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodDelete, "/api/projects/"+id, adminToken, nil)
	if code != http.StatusOK {
		t.Fatalf("delete: %d", code)
	}
	code, _ = s.do(t, http.MethodGet, "/api/projects/"+id, "", nil)
	if code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", code)
	}
}

func TestSkillRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	code, body := s.do(t, http.MethodPost, "/api/skills", token, map[string]any{"name": "Go", "category": "Backend"})
	if code != http.StatusCreated {
		t.Fatalf("create skill: %d %v", code, body)
	}
	if level := body["skill"].(map[string]any)["level"].(float64); level != 80 {
		t.Fatalf("default level = %v, want 80", level)
	}

	code, body = s.do(t, http.MethodGet, "/api/skills/category/backend", "", nil)
	if code != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("by category: %d %v", code, body)
	}

	code, body = s.do(t, http.MethodPost, "/api/skills", token, map[string]any{"category": "Backend", "level": 120})
	if code != http.StatusBadRequest || body["message"] != "Please provide a skill name, Level cannot exceed 100" {
		t.Fatalf("invalid skill: %d %v", code, body)
	}
}

func TestContactRoutes(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/contact", "", map[string]string{
		"name": "Bob", "email": "bob@example.com", "subject": "Hi", "message": "Hello there",
	})
	if code != http.StatusCreated || body["message"] != "Your message has been sent successfully" {
		t.Fatalf("submit: %d %v", code, body)
	}

	code, _ = s.do(t, http.MethodGet, "/api/contact", "", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous list: %d", code)
	}

	token := s.adminToken(t)
	code, body = s.do(t, http.MethodGet, "/api/contact", token, nil)
	if code != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("admin list: %d %v", code, body)
	}
	id := body["contacts"].([]any)[0].(map[string]any)["_id"].(string)

	code, body = s.do(t, http.MethodPatch, "/api/contact/"+id, token, map[string]string{"status": "bogus"})
	if code != http.StatusBadRequest {
		t.Fatalf("bad status: %d %v", code, body)
	}
	code, body = s.do(t, http.MethodPatch, "/api/contact/"+id, token, map[string]string{"status": "replied"})
	if code != http.StatusOK || body["contact"].(map[string]any)["status"] != "replied" {
		t.Fatalf("update status: %d %v", code, body)
	}
}

func TestUploads(t *testing.T) {
	s := newTestServer(t)
	token := s.adminToken(t)

	multipartRequest := func(path, field, contentType string) *http.Request {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="pic"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write([]byte("image-bytes"))
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, path, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	code, body := s.serve(t, multipartRequest("/api/projects/upload-image", "projectImage", "image/webp"))
	if code != http.StatusOK {
		t.Fatalf("project image: %d %v", code, body)
	}
	url := body["data"].(map[string]any)["imageUrl"].(string)
	if !strings.HasPrefix(url, "http://test.local/uploads/portfolio/projects/") || !strings.HasSuffix(url, ".webp") {
		t.Fatalf("unexpected image url %q", url)
	}

	code, body = s.serve(t, multipartRequest("/api/auth/avatar", "avatar", "image/webp"))
	if code != http.StatusBadRequest {
		t.Fatalf("webp avatar should be rejected: %d %v", code, body)
	}
	code, body = s.serve(t, multipartRequest("/api/auth/avatar", "avatar", "image/png"))
	if code != http.StatusOK {
		t.Fatalf("avatar: %d %v", code, body)
	}
	if img := body["data"].(map[string]any)["profileImage"].(string); !strings.HasSuffix(img, ".png") {
		t.Fatalf("unexpected avatar url %q", img)
	}

	code, body = s.serve(t, multipartRequest("/api/auth/avatar", "wrongfield", "image/png"))
	if code != http.StatusBadRequest || body["message"] != "No file uploaded" {
		t.Fatalf("missing file: %d %v", code, body)
	}
}

func TestPublicProfile(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/api/auth/profile/public", "", nil)
	if code != http.StatusNotFound || body["message"] != "Profile not found" {
		t.Fatalf("without admin: %d %v", code, body)
	}
	s.adminToken(t)
	code, body = s.do(t, http.MethodGet, "/api/auth/profile/public", "", nil)
	if code != http.StatusOK || body["data"].(map[string]any)["name"] != "Owner" {
		t.Fatalf("public profile: %d %v", code, body)
	}
}
