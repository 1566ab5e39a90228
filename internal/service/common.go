package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// unavailable 包装存储层错误，保留原始错误链
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// loadVisiblePost 不存在与不可见统一返回 ErrPostNotFound，不暴露草稿的存在
func loadVisiblePost(ctx context.Context, repo repository.PostRepo, viewer Viewer, postID uint64) (*model.Post, error) {
	post, err := repo.GetPost(ctx, postID)
	if err != nil {
		return nil, unavailable(err)
	}
	if post == nil || !viewer.CanSee(post) {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// publish 事件投递失败只记录日志
func publish(ctx context.Context, publisher kafka.Publisher, event *kafka.Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		log.WarnContext(ctx, "publish event failed", "type", event.Type, "post_id", event.PostID, "err", err)
	}
}

func toPostDTO(post *model.Post) *dto.PostDTO {
	if post == nil {
		return nil
	}
	out := &dto.PostDTO{}
	_ = copier.Copy(out, post)
	out.Tags = post.TagNames()
	return out
}

func toPostDTOs(posts []*model.Post) []*dto.PostDTO {
	out := make([]*dto.PostDTO, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostDTO(p))
	}
	return out
}

func toCommentDTOs(comments []*model.PostComment) []*dto.CommentDTO {
	out := make([]*dto.CommentDTO, 0, len(comments))
	for _, c := range comments {
		item := &dto.CommentDTO{}
		_ = copier.Copy(item, c)
		out = append(out, item)
	}
	return out
}
