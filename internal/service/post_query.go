package service

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/repository"
	"strconv"
	"strings"
)

// ListLimits 列表分页的默认值与上限
type ListLimits struct {
	DefaultLimit int
	MaxLimit     int
}

func (l ListLimits) normalized() ListLimits {
	if l.DefaultLimit <= 0 {
		l.DefaultLimit = 6
	}
	if l.MaxLimit <= 0 {
		l.MaxLimit = 50
	}
	if l.DefaultLimit > l.MaxLimit {
		l.DefaultLimit = l.MaxLimit
	}
	return l
}

// buildPostQuery 将宽松的客户端参数规整为存储层查询，返回实际使用的页码
func buildPostQuery(viewer Viewer, in *dto.PostListQuery, limits ListLimits) (*repository.PostQuery, int) {
	limits = limits.normalized()

	page := parsePositive(in.Page, 1)
	limit := parsePositive(in.Limit, limits.DefaultLimit)
	if limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}

	q := &repository.PostQuery{
		Search: strings.TrimSpace(in.Search),
		Tags:   parseTagFilter(in.Category, in.Tag, in.Tags),
		Sort:   parseSort(in.Sort),
		Limit:  limit,
		Offset: offsetOf(page, limit),
	}

	if author, err := strconv.ParseUint(strings.TrimSpace(in.Author), 10, 64); err == nil && author != 0 {
		q.AuthorID = author
		switch {
		case viewer.IsAdmin():
			q.AllDrafts = true
		case viewer.UserID == author:
			q.DraftsOf = author
		}
	}

	return q, page
}

func parsePositive(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// offsetOf 页码过大时封顶，避免溢出
func offsetOf(page, limit int) int {
	const maxOffset = 1 << 30
	if page-1 > maxOffset/limit {
		return maxOffset
	}
	return (page - 1) * limit
}

func parseSort(raw string) repository.PostSort {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "oldest":
		return repository.SortOldest
	case "popular":
		return repository.SortPopular
	default:
		return repository.SortNewest
	}
}

// parseTagFilter category 与 tag 为别名，tags 为逗号分隔；结果为需同时满足的标签集合
func parseTagFilter(values ...string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.TrimSpace(part)
			if name == "" || strings.EqualFold(name, "all") {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tags = append(tags, name)
		}
	}
	return tags
}

// totalPagesOf 至少为 1
func totalPagesOf(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
