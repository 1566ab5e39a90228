package repository

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/database"
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// newTestDB 每个测试一个独立的内存库，单连接保证事务与后续查询看到同一份数据
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:inkwell_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

var baseTime = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type postSeed struct {
	author    uint64
	title     string
	content   string
	published bool
	likes     int64
	tags      []string
	hour      int
}

func seedPost(t *testing.T, repo PostRepo, s postSeed) *model.Post {
	t.Helper()
	content := s.content
	if content == "" {
		content = "body"
	}
	author := s.author
	if author == 0 {
		author = 1
	}
	post := &model.Post{
		AuthorID:    author,
		Title:       s.title,
		Content:     content,
		Excerpt:     content,
		IsPublished: s.published,
		LikesCount:  s.likes,
		Version:     1,
		CreatedAt:   baseTime.Add(time.Duration(s.hour) * time.Hour),
		UpdatedAt:   baseTime,
	}
	for i, name := range s.tags {
		post.Tags = append(post.Tags, model.PostTag{Name: name, Position: i})
	}
	if err := repo.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("CreatePost(%q): %v", s.title, err)
	}
	return post
}

func titlesOf(posts []*model.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
