package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

type PostActionHandler struct {
	interactionSvc service.InteractionService
	commentSvc     service.CommentService
}

func NewPostActionHandler(interactionSvc service.InteractionService, commentSvc service.CommentService) *PostActionHandler {
	return &PostActionHandler{
		interactionSvc: interactionSvc,
		commentSvc:     commentSvc,
	}
}

// LikePost 点赞/取消点赞帖子
func (s *PostActionHandler) LikePost(c *gin.Context) {
	s.toggle(c, model.InteractionLike)
}

// BookmarkPost 收藏/取消收藏帖子
func (s *PostActionHandler) BookmarkPost(c *gin.Context) {
	s.toggle(c, model.InteractionBookmark)
}

func (s *PostActionHandler) toggle(c *gin.Context, kind model.InteractionKind) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	res, err := s.interactionSvc.Toggle(c.Request.Context(), viewerOf(c), postID, string(kind))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// GetPostActionState 当前用户对帖子的互动状态
func (s *PostActionHandler) GetPostActionState(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	state, err := s.interactionSvc.GetState(c.Request.Context(), viewerOf(c), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, state)
}

func (s *PostActionHandler) CreateComment(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req dto.CommentCreateDTO
	if !bindJSON(c, &req) {
		return
	}

	comment, err := s.commentSvc.AddComment(c.Request.Context(), viewerOf(c), postID, req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessCreated(c, comment)
}

func (s *PostActionHandler) GetComments(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	comments, err := s.commentSvc.ListComments(c.Request.Context(), viewerOf(c), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}

// ReconcileCounts 立即按账本修正全部派生计数
func (s *PostActionHandler) ReconcileCounts(c *gin.Context) {
	fixed, err := s.interactionSvc.ReconcileCounts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	log.InfoContext(c.Request.Context(), "counters reconciled on demand", "fixed", fixed)
	response.Success(c, gin.H{"fixed": fixed})
}
