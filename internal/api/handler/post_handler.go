package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
	}
}

// ListPosts 搜索、标签过滤、排序与分页
func (s *PostHandler) ListPosts(c *gin.Context) {
	var query dto.PostListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	page, err := s.postSvc.ListPosts(c.Request.Context(), viewerOf(c), &query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// GetPostDetail 帖子、评论与相关推荐
func (s *PostHandler) GetPostDetail(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	detail, err := s.postSvc.GetPostDetail(c.Request.Context(), viewerOf(c), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

func (s *PostHandler) CreatePost(c *gin.Context) {
	var req dto.PostCreateDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postSvc.CreatePost(c.Request.Context(), viewerOf(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessCreated(c, post)
}

func (s *PostHandler) UpdatePost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req dto.PostUpdateDTO
	if !bindJSON(c, &req) {
		return
	}

	post, err := s.postSvc.UpdatePost(c.Request.Context(), viewerOf(c), postID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// ListCategories 已发布帖子的标签分布
func (s *PostHandler) ListCategories(c *gin.Context) {
	categories, err := s.postSvc.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, categories)
}
