package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/redis"
	"Inkwell/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// KeyLocker 按 key 互斥，返回的函数用于释放
type KeyLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type InteractionService interface {
	Toggle(ctx context.Context, viewer Viewer, postID uint64, kind string) (*dto.ToggleDTO, error)
	GetState(ctx context.Context, viewer Viewer, postID uint64) (*dto.PostStateDTO, error)
	ReconcileCounts(ctx context.Context) (int64, error)
}

type interactionServiceImpl struct {
	postRepo        repository.PostRepo
	commentRepo     repository.CommentRepo
	interactionRepo repository.InteractionRepo
	locker          KeyLocker
	publisher       kafka.Publisher
}

func NewInteractionService(
	postRepo repository.PostRepo,
	commentRepo repository.CommentRepo,
	interactionRepo repository.InteractionRepo,
	locker KeyLocker,
	publisher kafka.Publisher,
) InteractionService {
	return &interactionServiceImpl{
		postRepo:        postRepo,
		commentRepo:     commentRepo,
		interactionRepo: interactionRepo,
		locker:          locker,
		publisher:       publisher,
	}
}

// Toggle 同一 (kind, user, post) 串行执行：存在则删除，不存在则插入，随后按账本重算计数
func (s *interactionServiceImpl) Toggle(ctx context.Context, viewer Viewer, postID uint64, kind string) (*dto.ToggleDTO, error) {
	if !viewer.IsAuthenticated() {
		return nil, UnauthorizedError
	}
	k := model.InteractionKind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.Valid() {
		return nil, ErrInvalidKind
	}

	if _, err := loadVisiblePost(ctx, s.postRepo, viewer, postID); err != nil {
		return nil, err
	}

	lockKey := fmt.Sprintf("%s%s:%d:%d", consts.InteractionLock, k, viewer.UserID, postID)
	unlock, err := s.locker.Lock(ctx, lockKey)
	if err != nil {
		if errors.Is(err, redis.ErrLockTimeout) {
			return nil, ErrConflict
		}
		return nil, unavailable(err)
	}
	defer unlock()

	active, count, err := s.interactionRepo.Toggle(ctx, viewer.UserID, postID, k)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrConflict
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		log.ErrorContext(ctx, "toggle interaction error", "kind", k, "post_id", postID, "user_id", viewer.UserID, "err", err)
		return nil, unavailable(err)
	}

	publish(ctx, s.publisher, &kafka.Event{
		Type:   kafka.EventInteractionToggled,
		PostID: postID,
		UserID: viewer.UserID,
		Payload: map[string]any{
			"kind":   k,
			"active": active,
			"count":  count,
		},
	})
	return &dto.ToggleDTO{Active: active, Count: count}, nil
}

// GetState 匿名用户的 liked/bookmarked 恒为 false
func (s *interactionServiceImpl) GetState(ctx context.Context, viewer Viewer, postID uint64) (*dto.PostStateDTO, error) {
	post, err := loadVisiblePost(ctx, s.postRepo, viewer, postID)
	if err != nil {
		return nil, err
	}

	state := &dto.PostStateDTO{
		LikeCount:     post.LikesCount,
		BookmarkCount: post.BookmarksCount,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		state.CommentCount, err = s.commentRepo.GetCommentCountByPostID(gCtx, postID)
		return err
	})
	if viewer.IsAuthenticated() {
		g.Go(func() error {
			var err error
			state.Liked, err = s.interactionRepo.Exists(gCtx, viewer.UserID, postID, model.InteractionLike)
			return err
		})
		g.Go(func() error {
			var err error
			state.Bookmarked, err = s.interactionRepo.Exists(gCtx, viewer.UserID, postID, model.InteractionBookmark)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, unavailable(err)
	}
	return state, nil
}

func (s *interactionServiceImpl) ReconcileCounts(ctx context.Context) (int64, error) {
	fixed, err := s.interactionRepo.ReconcileCounts(ctx)
	if err != nil {
		return 0, unavailable(err)
	}
	return fixed, nil
}
