package service

import (
	"Inkwell/internal/model"
	"Inkwell/internal/pkg/kafka"
	"Inkwell/internal/repository"
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// fakePostRepo 内存实现，过滤与排序语义与 SQL 版本一致
type fakePostRepo struct {
	mu     sync.Mutex
	posts  map[uint64]*model.Post
	nextID uint64

	getErr       error
	getDelay     time.Duration
	listErr      error
	relatedErr   error
	relatedDelay time.Duration
	relatedCalls int
	relatedSaw   chan error
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[uint64]*model.Post)}
}

func clonePost(p *model.Post) *model.Post {
	cp := *p
	cp.Tags = append([]model.PostTag(nil), p.Tags...)
	return &cp
}

// seed 直接写入，不经过服务层
func (r *fakePostRepo) seed(p *model.Post) *model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if p.ID == 0 {
		p.ID = r.nextID
	} else if p.ID > r.nextID {
		r.nextID = p.ID
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(p.ID) * time.Hour)
	}
	for i := range p.Tags {
		p.Tags[i].PostID = p.ID
		p.Tags[i].Position = i
	}
	r.posts[p.ID] = clonePost(p)
	return p
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	for i := range post.Tags {
		post.Tags[i].PostID = post.ID
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *fakePostRepo) GetPost(ctx context.Context, id uint64) (*model.Post, error) {
	if r.getDelay > 0 {
		select {
		case <-time.After(r.getDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.getErr != nil {
		return nil, r.getErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *fakePostRepo) UpdatePost(_ context.Context, post *model.Post, expectedVersion int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.posts[post.ID]
	if !ok || cur.Version != expectedVersion {
		return false, nil
	}
	next := clonePost(post)
	next.Version = expectedVersion + 1
	next.LikesCount = cur.LikesCount
	next.BookmarksCount = cur.BookmarksCount
	next.CreatedAt = cur.CreatedAt
	next.UpdatedAt = time.Now()
	r.posts[post.ID] = next
	post.Version = next.Version
	post.UpdatedAt = next.UpdatedAt
	return true, nil
}

func (r *fakePostRepo) matches(q *repository.PostQuery, p *model.Post) bool {
	switch {
	case q.AllDrafts:
	case q.DraftsOf != 0:
		if !p.IsPublished && p.AuthorID != q.DraftsOf {
			return false
		}
	default:
		if !p.IsPublished {
			return false
		}
	}
	if q.AuthorID != 0 && p.AuthorID != q.AuthorID {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(p.Title), term) && !strings.Contains(strings.ToLower(p.Content), term) {
			return false
		}
	}
	names := p.TagNames()
	for _, want := range q.Tags {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *fakePostRepo) filtered(q *repository.PostQuery) []*model.Post {
	var out []*model.Post
	for _, p := range r.posts {
		if r.matches(q, p) {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.Sort {
		case repository.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case repository.SortPopular:
			if a.LikesCount != b.LikesCount {
				return a.LikesCount > b.LikesCount
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out
}

func (r *fakePostRepo) ListPosts(_ context.Context, q *repository.PostQuery) ([]*model.Post, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.filtered(q)
	if q.Offset >= len(all) {
		return []*model.Post{}, nil
	}
	end := q.Offset + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[q.Offset:end], nil
}

func (r *fakePostRepo) CountPosts(_ context.Context, q *repository.PostQuery) (int64, error) {
	if r.listErr != nil {
		return 0, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filtered(q))), nil
}

func (r *fakePostRepo) GetRelatedPosts(ctx context.Context, postID uint64, limit int) ([]*model.Post, error) {
	r.mu.Lock()
	r.relatedCalls++
	r.mu.Unlock()

	if r.relatedDelay > 0 {
		select {
		case <-time.After(r.relatedDelay):
		case <-ctx.Done():
			if r.relatedSaw != nil {
				r.relatedSaw <- ctx.Err()
			}
			return nil, ctx.Err()
		}
	}
	if r.relatedErr != nil {
		return nil, r.relatedErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	target := map[string]struct{}{}
	if p, ok := r.posts[postID]; ok {
		for _, t := range p.Tags {
			target[t.Name] = struct{}{}
		}
	}

	type scored struct {
		post   *model.Post
		shared int
	}
	var candidates []scored
	for id, p := range r.posts {
		if id == postID || !p.IsPublished {
			continue
		}
		shared := 0
		for _, t := range p.Tags {
			if _, ok := target[t.Name]; ok {
				shared++
			}
		}
		if shared > 0 {
			candidates = append(candidates, scored{clonePost(p), shared})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.shared != b.shared {
			return a.shared > b.shared
		}
		if !a.post.CreatedAt.Equal(b.post.CreatedAt) {
			return a.post.CreatedAt.After(b.post.CreatedAt)
		}
		return a.post.ID > b.post.ID
	})
	out := make([]*model.Post, 0, limit)
	for i := 0; i < len(candidates) && i < limit; i++ {
		out = append(out, candidates[i].post)
	}
	return out, nil
}

func (r *fakePostRepo) GetTagCounts(_ context.Context) ([]*model.TagCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, p := range r.posts {
		if !p.IsPublished {
			continue
		}
		for _, t := range p.Tags {
			counts[t.Name]++
		}
	}
	out := make([]*model.TagCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, &model.TagCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *fakePostRepo) setCounter(postID uint64, kind model.InteractionKind, count int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return
	}
	if kind == model.InteractionBookmark {
		p.BookmarksCount = count
	} else {
		p.LikesCount = count
	}
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*model.PostComment
	nextID   uint64

	listErr   error
	listDelay time.Duration
	listCalls int
	listSaw   chan error
}

func (r *fakeCommentRepo) CreateComment(_ context.Context, c *model.PostComment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.comments = append(r.comments, &cp)
	return nil
}

func (r *fakeCommentRepo) GetCommentsByPostID(ctx context.Context, postID uint64) ([]*model.PostComment, error) {
	r.mu.Lock()
	r.listCalls++
	r.mu.Unlock()

	if r.listDelay > 0 {
		select {
		case <-time.After(r.listDelay):
		case <-ctx.Done():
			if r.listSaw != nil {
				r.listSaw <- ctx.Err()
			}
			return nil, ctx.Err()
		}
	}
	if r.listErr != nil {
		return nil, r.listErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PostComment
	for _, c := range r.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *fakeCommentRepo) GetCommentCountByPostID(_ context.Context, postID uint64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

type interactionKey struct {
	user uint64
	post uint64
	kind model.InteractionKind
}

// fakeInteractionRepo 检查与翻转故意分成两个临界区，串行化完全依赖调用方的锁
type fakeInteractionRepo struct {
	mu      sync.Mutex
	records map[interactionKey]struct{}
	posts   *fakePostRepo
}

func newFakeInteractionRepo(posts *fakePostRepo) *fakeInteractionRepo {
	return &fakeInteractionRepo{records: make(map[interactionKey]struct{}), posts: posts}
}

func (r *fakeInteractionRepo) Toggle(_ context.Context, userID, postID uint64, kind model.InteractionKind) (bool, int64, error) {
	key := interactionKey{userID, postID, kind}

	r.mu.Lock()
	_, exists := r.records[key]
	r.mu.Unlock()

	runtime.Gosched()

	r.mu.Lock()
	if exists {
		delete(r.records, key)
	} else {
		r.records[key] = struct{}{}
	}
	var count int64
	for k := range r.records {
		if k.post == postID && k.kind == kind {
			count++
		}
	}
	r.posts.setCounter(postID, kind, count)
	r.mu.Unlock()

	return !exists, count, nil
}

func (r *fakeInteractionRepo) Exists(_ context.Context, userID, postID uint64, kind model.InteractionKind) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[interactionKey{userID, postID, kind}]
	return ok, nil
}

func (r *fakeInteractionRepo) ledgerCount(_ context.Context, postID uint64, kind model.InteractionKind) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k := range r.records {
		if k.post == postID && k.kind == kind {
			n++
		}
	}
	return n, nil
}

func (r *fakeInteractionRepo) ReconcileCounts(ctx context.Context) (int64, error) {
	var fixed int64
	r.posts.mu.Lock()
	ids := make([]uint64, 0, len(r.posts.posts))
	for id := range r.posts.posts {
		ids = append(ids, id)
	}
	r.posts.mu.Unlock()

	for _, id := range ids {
		likes, _ := r.ledgerCount(ctx, id, model.InteractionLike)
		bookmarks, _ := r.ledgerCount(ctx, id, model.InteractionBookmark)
		r.posts.mu.Lock()
		p := r.posts.posts[id]
		if p.LikesCount != likes || p.BookmarksCount != bookmarks {
			p.LikesCount, p.BookmarksCount = likes, bookmarks
			fixed++
		}
		r.posts.mu.Unlock()
	}
	return fixed, nil
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e.Type)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}
