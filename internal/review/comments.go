package review

import (
	"context"
	"fmt"

	"go-yamdb/internal/access"

	"gorm.io/gorm"
)

func findComment(ctx context.Context, db *gorm.DB, reviewID, commentID uint) (*Comment, error) {
	var c Comment
	err := db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&c).Error
	if err != nil {
		return nil, notFound(err, "comment not found")
	}
	return &c, nil
}

// ListComments lists comments of a review; the review must belong to the title.
func (s *Service) ListComments(ctx context.Context, actor access.Actor, titleID, reviewID uint) ([]Comment, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}
	var out []Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("review_id = ?", reviewID).
		Order("pub_date, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return out, nil
}

func (s *Service) GetComment(ctx context.Context, actor access.Actor, titleID, reviewID, commentID uint) (*Comment, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}
	return findComment(ctx, s.db, reviewID, commentID)
}

func (s *Service) CreateComment(ctx context.Context, actor access.Actor, titleID, reviewID uint, in CommentInput) (*Comment, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	validateText(fields, in.Text)
	if err := fieldErr(fields); err != nil {
		return nil, err
	}
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}
	c := Comment{ReviewID: reviewID, AuthorID: actor.ID, Text: in.Text}
	if err := s.db.WithContext(ctx).Omit("Author", "Review").Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.log.Info(ctx, "comment created", "review_id", reviewID, "comment_id", c.ID, "actor", actor.Username)
	return findComment(ctx, s.db, reviewID, c.ID)
}

func (s *Service) UpdateComment(ctx context.Context, actor access.Actor, titleID, reviewID, commentID uint, p CommentPatch) (*Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	c, err := s.scopedComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor, access.Update, access.Object(access.Content, c.AuthorID)); err != nil {
		return nil, err
	}
	if p.Text == nil {
		return c, nil
	}
	fields := map[string]string{}
	validateText(fields, *p.Text)
	if err := fieldErr(fields); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&Comment{ID: c.ID}).Update("text", *p.Text).Error; err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return findComment(ctx, s.db, reviewID, commentID)
}

func (s *Service) DeleteComment(ctx context.Context, actor access.Actor, titleID, reviewID, commentID uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	c, err := s.scopedComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := access.Check(actor, access.Delete, access.Object(access.Content, c.AuthorID)); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&Comment{}, c.ID).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	s.log.Info(ctx, "comment deleted", "comment_id", c.ID, "actor", actor.Username)
	return nil
}

func (s *Service) scopedComment(ctx context.Context, titleID, reviewID, commentID uint) (*Comment, error) {
	if _, err := findReview(ctx, s.db, titleID, reviewID); err != nil {
		return nil, err
	}
	return findComment(ctx, s.db, reviewID, commentID)
}
