package repository

import (
	"Inkwell/internal/model"
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// PostSort 列表排序方式
type PostSort int

const (
	SortNewest PostSort = iota
	SortOldest
	SortPopular
)

// PostQuery 列表查询条件，Offset/Limit 只作用于 ListPosts
type PostQuery struct {
	Search   string
	Tags     []string
	AuthorID uint64

	// 可见性：默认只返回已发布；DraftsOf 额外放行该作者的草稿；AllDrafts 放行全部
	DraftsOf  uint64
	AllDrafts bool

	Sort   PostSort
	Offset int
	Limit  int
}

type PostRepo interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id uint64) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post, expectedVersion int) (bool, error)
	ListPosts(ctx context.Context, q *PostQuery) ([]*model.Post, error)
	CountPosts(ctx context.Context, q *PostQuery) (int64, error)
	GetRelatedPosts(ctx context.Context, postID uint64, limit int) ([]*model.Post, error)
	GetTagCounts(ctx context.Context) ([]*model.TagCount, error)
}

type PostRepoImpl struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepo {
	return &PostRepoImpl{
		db: db,
	}
}

// LIKE 转义符用 '!'，不依赖 MySQL 的反斜杠转义与 sql_mode
var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

func preloadTags(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func (s *PostRepoImpl) CreatePost(ctx context.Context, post *model.Post) error {
	tags := post.Tags
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Create(post).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		for i := range tags {
			tags[i].PostID = post.ID
		}
		return tx.Create(&tags).Error
	})
}

// GetPost 不存在时返回 nil, nil
func (s *PostRepoImpl) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := s.db.WithContext(ctx).Preload("Tags", preloadTags).First(&post, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// UpdatePost 乐观锁更新，版本不匹配时返回 false；成功时回写 Version 与 UpdatedAt
func (s *PostRepoImpl) UpdatePost(ctx context.Context, post *model.Post, expectedVersion int) (bool, error) {
	updated := false
	now := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Post{}).
			Where("id = ? AND version = ?", post.ID, expectedVersion).
			Updates(map[string]interface{}{
				"title":        post.Title,
				"content":      post.Content,
				"excerpt":      post.Excerpt,
				"image_url":    post.ImageURL,
				"is_published": post.IsPublished,
				"updated_at":   now,
				"version":      gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostTag{}).Error; err != nil {
			return err
		}
		if len(post.Tags) > 0 {
			for i := range post.Tags {
				post.Tags[i].PostID = post.ID
			}
			if err := tx.Create(&post.Tags).Error; err != nil {
				return err
			}
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if updated {
		post.Version = expectedVersion + 1
		post.UpdatedAt = now
	}
	return updated, nil
}

func (s *PostRepoImpl) scoped(ctx context.Context, q *PostQuery) *gorm.DB {
	db := s.db.WithContext(ctx).Model(&model.Post{})

	switch {
	case q.AllDrafts:
	case q.DraftsOf != 0:
		db = db.Where("(posts.is_published = ? OR posts.author_id = ?)", true, q.DraftsOf)
	default:
		db = db.Where("posts.is_published = ?", true)
	}

	if q.AuthorID != 0 {
		db = db.Where("posts.author_id = ?", q.AuthorID)
	}

	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(q.Search)) + "%"
		db = db.Where("(LOWER(posts.title) LIKE ? ESCAPE '!' OR LOWER(posts.content) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	for _, tag := range q.Tags {
		db = db.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.name = ?)", tag)
	}

	return db
}

func (s *PostRepoImpl) ListPosts(ctx context.Context, q *PostQuery) ([]*model.Post, error) {
	var posts []*model.Post

	db := s.scoped(ctx, q)
	switch q.Sort {
	case SortOldest:
		db = db.Order("posts.created_at ASC").Order("posts.id ASC")
	case SortPopular:
		db = db.Order("posts.likes_count DESC").Order("posts.created_at DESC").Order("posts.id DESC")
	default:
		db = db.Order("posts.created_at DESC").Order("posts.id DESC")
	}

	err := db.Preload("Tags", preloadTags).
		Limit(q.Limit).Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostRepoImpl) CountPosts(ctx context.Context, q *PostQuery) (int64, error) {
	var total int64
	err := s.scoped(ctx, q).Count(&total).Error
	return total, err
}

// GetRelatedPosts 与目标帖子共享标签的其他已发布帖子，按共享标签数、发布时间倒序
func (s *PostRepoImpl) GetRelatedPosts(ctx context.Context, postID uint64, limit int) ([]*model.Post, error) {
	var posts []*model.Post

	targetTags := s.db.Model(&model.PostTag{}).Select("name").Where("post_id = ?", postID)

	err := s.db.WithContext(ctx).Model(&model.Post{}).
		Select("posts.*, COUNT(post_tags.name) AS shared_tags").
		Joins("JOIN post_tags ON post_tags.post_id = posts.id").
		Where("post_tags.name IN (?)", targetTags).
		Where("posts.id <> ? AND posts.is_published = ?", postID, true).
		Group("posts.id").
		Order("shared_tags DESC").Order("posts.created_at DESC").Order("posts.id DESC").
		Limit(limit).
		Preload("Tags", preloadTags).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetTagCounts 已发布帖子的标签分布
func (s *PostRepoImpl) GetTagCounts(ctx context.Context) ([]*model.TagCount, error) {
	var counts []*model.TagCount
	err := s.db.WithContext(ctx).Model(&model.PostTag{}).
		Select("post_tags.name AS name, COUNT(*) AS count").
		Joins("JOIN posts ON posts.id = post_tags.post_id").
		Where("posts.is_published = ?", true).
		Group("post_tags.name").
		Order("count DESC").Order("name ASC").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}
