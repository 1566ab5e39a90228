package api

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/api/handler"
	"Inkwell/internal/pkg/security"
	"Inkwell/internal/service"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

type stubPostService struct {
	service.PostService

	lastViewer service.Viewer
	lastQuery  *dto.PostListQuery
	lastID     uint64
	err        error
}

func (s *stubPostService) ListPosts(_ context.Context, viewer service.Viewer, q *dto.PostListQuery) (*dto.PostPageDTO, error) {
	s.lastViewer, s.lastQuery = viewer, q
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PostPageDTO{Items: []*dto.PostDTO{}, Total: 0, Page: 1, TotalPages: 1}, nil
}

func (s *stubPostService) GetPostDetail(_ context.Context, viewer service.Viewer, id uint64) (*dto.PostDetailDTO, error) {
	s.lastViewer, s.lastID = viewer, id
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PostDetailDTO{Post: &dto.PostDTO{ID: id}, Comments: []*dto.CommentDTO{}, RelatedPosts: []*dto.PostDTO{}}, nil
}

func (s *stubPostService) CreatePost(_ context.Context, viewer service.Viewer, in *dto.PostCreateDTO) (*dto.PostDTO, error) {
	s.lastViewer = viewer
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PostDTO{ID: 1, Title: in.Title, AuthorID: viewer.UserID}, nil
}

func (s *stubPostService) UpdatePost(_ context.Context, viewer service.Viewer, id uint64, _ *dto.PostUpdateDTO) (*dto.PostDTO, error) {
	s.lastViewer, s.lastID = viewer, id
	if s.err != nil {
		return nil, s.err
	}
	return &dto.PostDTO{ID: id}, nil
}

func (s *stubPostService) ListCategories(context.Context) ([]*dto.CategoryDTO, error) {
	return []*dto.CategoryDTO{{Name: "go", Count: 2}}, nil
}

type stubInteractionService struct {
	service.InteractionService

	lastKind   string
	lastViewer service.Viewer
	err        error
}

func (s *stubInteractionService) Toggle(_ context.Context, viewer service.Viewer, _ uint64, kind string) (*dto.ToggleDTO, error) {
	s.lastViewer, s.lastKind = viewer, kind
	if s.err != nil {
		return nil, s.err
	}
	return &dto.ToggleDTO{Active: true, Count: 1}, nil
}

func (s *stubInteractionService) GetState(_ context.Context, viewer service.Viewer, _ uint64) (*dto.PostStateDTO, error) {
	s.lastViewer = viewer
	return &dto.PostStateDTO{}, nil
}

func (s *stubInteractionService) ReconcileCounts(context.Context) (int64, error) {
	return 2, nil
}

type stubCommentService struct {
	service.CommentService

	lastText string
}

func (s *stubCommentService) AddComment(_ context.Context, viewer service.Viewer, postID uint64, text string) (*dto.CommentDTO, error) {
	s.lastText = text
	return &dto.CommentDTO{ID: 1, PostID: postID, AuthorID: viewer.UserID, Text: text}, nil
}

func (s *stubCommentService) ListComments(context.Context, service.Viewer, uint64) ([]*dto.CommentDTO, error) {
	return []*dto.CommentDTO{}, nil
}

type testServer struct {
	router       *gin.Engine
	parser       *security.TokenParser
	posts        *stubPostService
	interactions *stubInteractionService
	comments     *stubCommentService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	ts := &testServer{
		parser:       security.NewTokenParser("test-secret", "Inkwell"),
		posts:        &stubPostService{},
		interactions: &stubInteractionService{},
		comments:     &stubCommentService{},
	}
	ts.router = SetupRouter(&HandlersGroup{
		PostHandler:       handler.NewPostHandler(ts.posts),
		PostActionHandler: handler.NewPostActionHandler(ts.interactions, ts.comments),
	}, RouterOptions{TokenParser: ts.parser})
	return ts
}

func (ts *testServer) token(t *testing.T, userID uint64, roles ...string) string {
	t.Helper()
	tok, err := ts.parser.GenerateToken(userID, roles, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return tok
}

func (ts *testServer) do(method, path, token, body string) (*httptest.ResponseRecorder, dto.Response) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestPing(t *testing.T) {
	ts := newTestServer()
	w, resp := ts.do(http.MethodGet, "/api/ping", "", "")
	if w.Code != http.StatusOK || resp.Code != 200 || resp.Data != "pong" {
		t.Fatalf("status=%d resp=%+v", w.Code, resp)
	}
	if w.Header().Get("X-Trace-ID") == "" {
		t.Fatalf("missing X-Trace-ID header")
	}
}

func TestListPostsRoute(t *testing.T) {
	ts := newTestServer()

	w, resp := ts.do(http.MethodGet, "/api/posts?search=rust&sort=popular&page=2&limit=2&category=go", "", "")
	if w.Code != http.StatusOK || resp.Code != 200 {
		t.Fatalf("status=%d resp=%+v", w.Code, resp)
	}
	q := ts.posts.lastQuery
	if q.Search != "rust" || q.Sort != "popular" || q.Page != "2" || q.Limit != "2" || q.Category != "go" {
		t.Fatalf("query = %+v", q)
	}
	if ts.posts.lastViewer.UserID != 0 {
		t.Fatalf("anonymous request got viewer %+v", ts.posts.lastViewer)
	}

	data, _ := resp.Data.(map[string]any)
	for _, key := range []string{"items", "total", "page", "totalPages"} {
		if _, ok := data[key]; !ok {
			t.Errorf("response data missing %q: %v", key, data)
		}
	}

	ts.do(http.MethodGet, "/api/posts", ts.token(t, 7, "ADMIN"), "")
	if ts.posts.lastViewer.UserID != 7 || !ts.posts.lastViewer.IsAdmin() {
		t.Fatalf("viewer = %+v, want user 7 admin", ts.posts.lastViewer)
	}

	ts.do(http.MethodGet, "/api/posts", "garbage", "")
	if ts.posts.lastViewer.UserID != 0 {
		t.Fatalf("bad token on optional route must be anonymous")
	}
}

func TestCategoriesRouteIsNotDetail(t *testing.T) {
	ts := newTestServer()
	w, resp := ts.do(http.MethodGet, "/api/posts/categories", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	items, _ := resp.Data.([]any)
	if len(items) != 1 {
		t.Fatalf("categories = %v", resp.Data)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"不存在", service.ErrPostNotFound, http.MethodGet, "/api/posts/5", "", 404},
		{"无权修改", service.ErrForbidden, http.MethodPut, "/api/posts/5", `{"title":"x"}`, 403},
		{"版本冲突", service.ErrConflict, http.MethodPut, "/api/posts/5", `{"title":"x","version":1}`, 409},
		{"存储不可用", fmt.Errorf("%w: %w", service.ErrUnavailable, errors.New("dial tcp 10.0.0.1:3306")), http.MethodGet, "/api/posts/5", "", 500},
		{"未知错误", errors.New("boom"), http.MethodGet, "/api/posts", "", 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.posts.err = tt.err
			w, resp := ts.do(tt.method, tt.path, ts.token(t, 7), tt.body)
			if w.Code != tt.wantStatus || resp.Code != tt.wantStatus {
				t.Fatalf("status=%d code=%d, want %d", w.Code, resp.Code, tt.wantStatus)
			}
			if tt.wantStatus == 500 && strings.Contains(resp.Message, "3306") {
				t.Fatalf("internal detail leaked: %q", resp.Message)
			}
		})
	}
}

func TestBadPostID(t *testing.T) {
	ts := newTestServer()
	for _, path := range []string{"/api/posts/abc", "/api/posts/0", "/api/posts/-1"} {
		w, _ := ts.do(http.MethodGet, path, "", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, w.Code)
		}
	}
}

func TestCreatePostRoute(t *testing.T) {
	ts := newTestServer()

	w, _ := ts.do(http.MethodPost, "/api/posts", "", `{"title":"t","content":"c"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	w, resp := ts.do(http.MethodPost, "/api/posts", ts.token(t, 9), `{"title":"t","content":"c"}`)
	if w.Code != http.StatusCreated || resp.Code != 201 {
		t.Fatalf("status=%d resp=%+v", w.Code, resp)
	}
	if ts.posts.lastViewer.UserID != 9 {
		t.Fatalf("viewer = %+v", ts.posts.lastViewer)
	}

	w, resp = ts.do(http.MethodPost, "/api/posts", ts.token(t, 9), `{"title":`)
	if w.Code != http.StatusBadRequest || resp.Message != "Json错误" {
		t.Fatalf("bad json status=%d resp=%+v", w.Code, resp)
	}

	ts.posts.err = &service.ValidationError{Fields: []service.FieldError{
		{Field: "title", Message: "长度不能超过 120"},
		{Field: "content", Message: "不能为空"},
	}}
	w, resp = ts.do(http.MethodPost, "/api/posts", ts.token(t, 9), `{"title":"t"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation status = %d", w.Code)
	}
	data, _ := resp.Data.(map[string]any)
	errs, _ := data["errors"].([]any)
	if len(errs) != 2 {
		t.Fatalf("errors = %v, want 2 field errors", resp.Data)
	}
}

func TestInteractionRoutes(t *testing.T) {
	ts := newTestServer()

	w, _ := ts.do(http.MethodPost, "/api/posts/3/like", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous like status = %d, want 401", w.Code)
	}

	tok := ts.token(t, 4)
	for path, kind := range map[string]string{"/api/posts/3/like": "like", "/api/posts/3/bookmark": "bookmark"} {
		w, resp := ts.do(http.MethodPost, path, tok, "")
		if w.Code != http.StatusOK {
			t.Fatalf("POST %s status = %d", path, w.Code)
		}
		if ts.interactions.lastKind != kind || ts.interactions.lastViewer.UserID != 4 {
			t.Fatalf("kind=%q viewer=%+v", ts.interactions.lastKind, ts.interactions.lastViewer)
		}
		data, _ := resp.Data.(map[string]any)
		if data["active"] != true || data["count"] != float64(1) {
			t.Fatalf("data = %v", data)
		}
	}

	ts.interactions.err = service.ErrInvalidKind
	w, _ = ts.do(http.MethodPost, "/api/posts/3/like", tok, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid kind status = %d, want 400", w.Code)
	}

	w, _ = ts.do(http.MethodGet, "/api/posts/3/state", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("state status = %d", w.Code)
	}
}

func TestCommentRoutes(t *testing.T) {
	ts := newTestServer()

	w, resp := ts.do(http.MethodPost, "/api/posts/3/comments", ts.token(t, 4), `{"text":"hello"}`)
	if w.Code != http.StatusCreated || ts.comments.lastText != "hello" {
		t.Fatalf("status=%d text=%q resp=%+v", w.Code, ts.comments.lastText, resp)
	}

	w, _ = ts.do(http.MethodGet, "/api/posts/3/comments", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list comments status = %d", w.Code)
	}
}

func TestAdminReconcileRoute(t *testing.T) {
	ts := newTestServer()

	w, _ := ts.do(http.MethodPost, "/api/admin/counters/reconcile", ts.token(t, 4), "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", w.Code)
	}

	w, resp := ts.do(http.MethodPost, "/api/admin/counters/reconcile", ts.token(t, 1, "ADMIN"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d resp=%+v", w.Code, resp)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer()
	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://blog.example.com" {
		t.Fatalf("allow origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
