package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"
)

type CommentService interface {
	AddComment(ctx context.Context, viewer Viewer, postID uint64, text string) (*dto.CommentDTO, error)
	ListComments(ctx context.Context, viewer Viewer, postID uint64) ([]*dto.CommentDTO, error)
}

type commentServiceImpl struct {
	postRepo    repository.PostRepo
	commentRepo repository.CommentRepo
	publisher   kafka.Publisher
}

func NewCommentService(postRepo repository.PostRepo, commentRepo repository.CommentRepo, publisher kafka.Publisher) CommentService {
	return &commentServiceImpl{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
	}
}

func (s *commentServiceImpl) AddComment(ctx context.Context, viewer Viewer, postID uint64, text string) (*dto.CommentDTO, error) {
	if !viewer.IsAuthenticated() {
		return nil, UnauthorizedError
	}

	input := commentInput{Text: strings.TrimSpace(text)}
	if err := validateStruct(&input); err != nil {
		return nil, err
	}

	if _, err := loadVisiblePost(ctx, s.postRepo, viewer, postID); err != nil {
		return nil, err
	}

	comment := &model.PostComment{
		PostID:    postID,
		AuthorID:  viewer.UserID,
		Text:      input.Text,
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		log.ErrorContext(ctx, "create comment error", "post_id", postID, "err", err)
		return nil, unavailable(err)
	}

	publish(ctx, s.publisher, &kafka.Event{
		Type:    kafka.EventCommentCreated,
		PostID:  postID,
		UserID:  viewer.UserID,
		Payload: map[string]any{"comment_id": comment.ID},
	})
	return toCommentDTOs([]*model.PostComment{comment})[0], nil
}

// ListComments 按创建时间正序
func (s *commentServiceImpl) ListComments(ctx context.Context, viewer Viewer, postID uint64) ([]*dto.CommentDTO, error) {
	if _, err := loadVisiblePost(ctx, s.postRepo, viewer, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, unavailable(err)
	}
	return toCommentDTOs(comments), nil
}
