package repository

import (
	"Inkwell/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InteractionRepo interface {
	Toggle(ctx context.Context, userID, postID uint64, kind model.InteractionKind) (bool, int64, error)
	Exists(ctx context.Context, userID, postID uint64, kind model.InteractionKind) (bool, error)
	ReconcileCounts(ctx context.Context) (int64, error)
}

type InteractionRepoImpl struct {
	db *gorm.DB
}

func NewInteractionRepo(db *gorm.DB) InteractionRepo {
	return &InteractionRepoImpl{db}
}

// Toggle 在同一事务内完成翻转与计数回写，返回翻转后的状态与该类型的实时计数
// 先锁住帖子行，同一帖子的翻转在库内串行，COUNT 才能看到其他事务已提交的记录
func (s *InteractionRepoImpl) Toggle(ctx context.Context, userID, postID uint64, kind model.InteractionKind) (bool, int64, error) {
	var (
		active bool
		count  int64
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&post, postID).Error; err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
			Delete(&model.PostInteraction{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			record := &model.PostInteraction{
				UserID:    userID,
				PostID:    postID,
				Kind:      kind,
				CreatedAt: time.Now(),
			}
			if err := tx.Create(record).Error; err != nil {
				return err
			}
			active = true
		}

		if err := tx.Model(&model.PostInteraction{}).
			Where("post_id = ? AND kind = ?", postID, kind).
			Count(&count).Error; err != nil {
			return err
		}

		return tx.Model(&model.Post{}).
			Where("id = ?", postID).
			UpdateColumn(kind.CounterColumn(), count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return active, count, nil
}

func (s *InteractionRepoImpl) Exists(ctx context.Context, userID, postID uint64, kind model.InteractionKind) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.PostInteraction{}).
		Where("user_id = ? AND post_id = ? AND kind = ?", userID, postID, kind).
		Count(&count).Error
	return count > 0, err
}

// ReconcileCounts 以账本为准重算全部帖子的派生计数，返回被修正的行数
func (s *InteractionRepoImpl) ReconcileCounts(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
UPDATE posts SET
	likes_count = (SELECT COUNT(*) FROM post_interactions pi WHERE pi.post_id = posts.id AND pi.kind = ?),
	bookmarks_count = (SELECT COUNT(*) FROM post_interactions pi WHERE pi.post_id = posts.id AND pi.kind = ?)
WHERE likes_count <> (SELECT COUNT(*) FROM post_interactions pi WHERE pi.post_id = posts.id AND pi.kind = ?)
	OR bookmarks_count <> (SELECT COUNT(*) FROM post_interactions pi WHERE pi.post_id = posts.id AND pi.kind = ?)`,
		model.InteractionLike, model.InteractionBookmark, model.InteractionLike, model.InteractionBookmark)
	return res.RowsAffected, res.Error
}
