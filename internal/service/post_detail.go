package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"context"
	"errors"
	log "log/slog"

	"golang.org/x/sync/errgroup"
)

// GetPostDetail 并发拉取帖子、评论与相关推荐
// 帖子是必需数据，评论与相关推荐失败时降级为空列表；帖子不可见时立即取消其余两路
func (s *postServiceImpl) GetPostDetail(ctx context.Context, viewer Viewer, postID uint64) (*dto.PostDetailDTO, error) {
	bestCtx, cancelBest := context.WithCancel(ctx)
	defer cancelBest()

	var (
		post     *model.Post
		comments []*model.PostComment
		related  []*model.Post
	)

	// 不使用 errgroup.WithContext：降级分支的失败不能影响帖子本身
	var g errgroup.Group
	g.Go(func() error {
		p, err := s.postRepo.GetPost(ctx, postID)
		if err != nil {
			cancelBest()
			log.ErrorContext(ctx, "get post error", "post_id", postID, "err", err)
			return unavailable(err)
		}
		if p == nil || !viewer.CanSee(p) {
			cancelBest()
			return ErrPostNotFound
		}
		post = p
		return nil
	})
	g.Go(func() error {
		comments = s.bestEffortComments(bestCtx, postID)
		return nil
	})
	g.Go(func() error {
		related = s.bestEffortRelated(bestCtx, postID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &dto.PostDetailDTO{
		Post:         toPostDTO(post),
		ContentHTML:  s.renderContent(ctx, post),
		Comments:     toCommentDTOs(comments),
		CommentCount: len(comments),
		RelatedPosts: toPostDTOs(related),
	}, nil
}

func (s *postServiceImpl) bestEffortComments(ctx context.Context, postID uint64) []*model.PostComment {
	tCtx, cancel := context.WithTimeout(ctx, s.opts.BestEffortTimeout)
	defer cancel()

	comments, err := s.commentRepo.GetCommentsByPostID(tCtx, postID)
	if err != nil {
		logDegraded(ctx, "comments", postID, err)
		return nil
	}
	return comments
}

func (s *postServiceImpl) bestEffortRelated(ctx context.Context, postID uint64) []*model.Post {
	tCtx, cancel := context.WithTimeout(ctx, s.opts.BestEffortTimeout)
	defer cancel()

	related, err := s.postRepo.GetRelatedPosts(tCtx, postID, s.opts.RelatedLimit)
	if err != nil {
		logDegraded(ctx, "related_posts", postID, err)
		return nil
	}
	return related
}

// logDegraded 主动取消（帖子不可见）不算降级
func logDegraded(ctx context.Context, field string, postID uint64, err error) {
	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	log.WarnContext(ctx, "detail field degraded", "field", field, "post_id", postID, "err", err)
}

func (s *postServiceImpl) renderContent(ctx context.Context, post *model.Post) string {
	if s.renderer == nil {
		return ""
	}
	html, err := s.renderer.Render(post.Content)
	if err != nil {
		log.WarnContext(ctx, "render markdown failed", "post_id", post.ID, "err", err)
		return ""
	}
	return html
}
