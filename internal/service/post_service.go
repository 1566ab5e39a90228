package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/consts"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/pkg/markdown"
	"Inkwell/internal/repository"
	"context"
	log "log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

type PostService interface {
	ListPosts(ctx context.Context, viewer Viewer, query *dto.PostListQuery) (*dto.PostPageDTO, error)
	GetPostDetail(ctx context.Context, viewer Viewer, postID uint64) (*dto.PostDetailDTO, error)
	CreatePost(ctx context.Context, viewer Viewer, in *dto.PostCreateDTO) (*dto.PostDTO, error)
	UpdatePost(ctx context.Context, viewer Viewer, postID uint64, in *dto.PostUpdateDTO) (*dto.PostDTO, error)
	ListCategories(ctx context.Context) ([]*dto.CategoryDTO, error)
}

// PostOptions 列表与详情的可调参数
type PostOptions struct {
	Limits            ListLimits
	RelatedLimit      int
	BestEffortTimeout time.Duration
}

type postServiceImpl struct {
	postRepo    repository.PostRepo
	commentRepo repository.CommentRepo
	publisher   kafka.Publisher
	renderer    *markdown.Renderer
	opts        PostOptions
}

func NewPostService(
	postRepo repository.PostRepo,
	commentRepo repository.CommentRepo,
	publisher kafka.Publisher,
	renderer *markdown.Renderer,
	opts PostOptions,
) PostService {
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = 3
	}
	if opts.BestEffortTimeout <= 0 {
		opts.BestEffortTimeout = 800 * time.Millisecond
	}
	opts.Limits = opts.Limits.normalized()
	return &postServiceImpl{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		publisher:   publisher,
		renderer:    renderer,
		opts:        opts,
	}
}

// ListPosts 过滤、排序、分页；total 与 totalPages 基于过滤后的集合
func (s *postServiceImpl) ListPosts(ctx context.Context, viewer Viewer, query *dto.PostListQuery) (*dto.PostPageDTO, error) {
	if query == nil {
		query = &dto.PostListQuery{}
	}
	q, page := buildPostQuery(viewer, query, s.opts.Limits)

	var (
		total int64
		posts []*model.Post
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.postRepo.CountPosts(gCtx, q)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = s.postRepo.ListPosts(gCtx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		log.ErrorContext(ctx, "list posts error", "err", err)
		return nil, unavailable(err)
	}

	return &dto.PostPageDTO{
		Items:      toPostDTOs(posts),
		Total:      total,
		Page:       page,
		TotalPages: totalPagesOf(total, q.Limit),
	}, nil
}

func (s *postServiceImpl) CreatePost(ctx context.Context, viewer Viewer, in *dto.PostCreateDTO) (*dto.PostDTO, error) {
	if !viewer.IsAuthenticated() {
		return nil, UnauthorizedError
	}
	if in == nil {
		return nil, ErrParamInvalid
	}

	// 正文只在校验时去空白，入库保留原始 markdown
	input := postInput{
		Title:    strings.TrimSpace(in.Title),
		Content:  strings.TrimSpace(in.Content),
		Excerpt:  strings.TrimSpace(in.Excerpt),
		Tags:     normalizeTags(in.Tags),
		ImageURL: normalizeImageURL(in.ImageURL),
	}
	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.Excerpt == "" {
		input.Excerpt = deriveExcerpt(in.Content)
	}

	post := &model.Post{
		AuthorID:    viewer.UserID,
		Title:       input.Title,
		Content:     in.Content,
		Excerpt:     input.Excerpt,
		ImageURL:    input.ImageURL,
		IsPublished: in.IsPublished,
		Version:     1,
		Tags:        toPostTags(input.Tags),
	}
	if err := s.postRepo.CreatePost(ctx, post); err != nil {
		log.ErrorContext(ctx, "create post error", "err", err)
		return nil, unavailable(err)
	}

	log.InfoContext(ctx, "post created", "post_id", post.ID, "author_id", post.AuthorID, "published", post.IsPublished)
	if post.IsPublished {
		publish(ctx, s.publisher, &kafka.Event{Type: kafka.EventPostPublished, PostID: post.ID, UserID: viewer.UserID})
	}
	return toPostDTO(post), nil
}

// UpdatePost 仅作者或管理员可改；携带 version 时做乐观并发校验
func (s *postServiceImpl) UpdatePost(ctx context.Context, viewer Viewer, postID uint64, in *dto.PostUpdateDTO) (*dto.PostDTO, error) {
	if !viewer.IsAuthenticated() {
		return nil, UnauthorizedError
	}
	if in == nil {
		return nil, ErrParamInvalid
	}

	post, err := loadVisiblePost(ctx, s.postRepo, viewer, postID)
	if err != nil {
		return nil, err
	}
	if !viewer.IsOwner(post) && !viewer.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.Version != nil && *in.Version != post.Version {
		return nil, ErrConflict
	}

	oldContent := post.Content
	content := post.Content
	if in.Content != nil {
		content = *in.Content
	}
	input := postInput{
		Title:    post.Title,
		Content:  strings.TrimSpace(content),
		Excerpt:  post.Excerpt,
		Tags:     post.TagNames(),
		ImageURL: post.ImageURL,
	}
	if in.Title != nil {
		input.Title = strings.TrimSpace(*in.Title)
	}
	if in.Tags != nil {
		input.Tags = normalizeTags(*in.Tags)
	}
	if in.ImageURL != nil {
		input.ImageURL = normalizeImageURL(in.ImageURL)
	}
	switch {
	case in.Excerpt != nil:
		input.Excerpt = strings.TrimSpace(*in.Excerpt)
	case content != oldContent && post.Excerpt == deriveExcerpt(oldContent):
		// 原摘要为自动生成，随正文一起刷新
		input.Excerpt = ""
	}

	if err := validateStruct(&input); err != nil {
		return nil, err
	}
	if input.Excerpt == "" {
		input.Excerpt = deriveExcerpt(content)
	}

	wasPublished := post.IsPublished
	post.Title = input.Title
	post.Content = content
	post.Excerpt = input.Excerpt
	post.ImageURL = input.ImageURL
	post.Tags = toPostTags(input.Tags)
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}

	updated, err := s.postRepo.UpdatePost(ctx, post, post.Version)
	if err != nil {
		log.ErrorContext(ctx, "update post error", "post_id", postID, "err", err)
		return nil, unavailable(err)
	}
	if !updated {
		return nil, ErrConflict
	}

	log.InfoContext(ctx, "post updated", "post_id", post.ID, "version", post.Version, "published", post.IsPublished)
	if !wasPublished && post.IsPublished {
		publish(ctx, s.publisher, &kafka.Event{Type: kafka.EventPostPublished, PostID: post.ID, UserID: viewer.UserID})
	}
	return toPostDTO(post), nil
}

func (s *postServiceImpl) ListCategories(ctx context.Context) ([]*dto.CategoryDTO, error) {
	counts, err := s.postRepo.GetTagCounts(ctx)
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]*dto.CategoryDTO, 0, len(counts))
	for _, c := range counts {
		out = append(out, &dto.CategoryDTO{Name: c.Name, Count: c.Count})
	}
	return out, nil
}

// deriveExcerpt 去掉首尾空白后取正文前 160 个字符加省略号；不超过 160 个字符时原样返回
func deriveExcerpt(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= consts.AutoExcerptLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:consts.AutoExcerptLength]) + consts.ExcerptEllipsis
}

// normalizeTags 去空白、去空项、去重并保留首次出现的顺序
func normalizeTags(raw []string) []string {
	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		name := strings.TrimSpace(t)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		tags = append(tags, name)
	}
	return tags
}

func normalizeImageURL(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil
	}
	return &v
}

func toPostTags(names []string) []model.PostTag {
	tags := make([]model.PostTag, 0, len(names))
	for i, name := range names {
		tags = append(tags, model.PostTag{Name: name, Position: i})
	}
	return tags
}
