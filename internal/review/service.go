package review

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/catalog"
	"go-yamdb/internal/logging"

	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log logging.Logger
}

func NewService(db *gorm.DB, log logging.Logger) *Service {
	return &Service{db: db, log: log}
}

type ReviewInput struct {
	Text  string `json:"text"`
	Score *int   `json:"score"`
}

type ReviewPatch struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type CommentInput struct {
	Text string `json:"text"`
}

type CommentPatch struct {
	Text *string `json:"text"`
}

func validateText(fields map[string]string, text string) {
	if strings.TrimSpace(text) == "" {
		fields["text"] = "text is required"
	}
}

func validateScore(fields map[string]string, score int) {
	if score < MinScore || score > MaxScore {
		fields["score"] = fmt.Sprintf("score must be between %d and %d", MinScore, MaxScore)
	}
}

func fieldErr(fields map[string]string) error {
	if len(fields) > 0 {
		return apperr.Validation("invalid input", fields)
	}
	return nil
}

// requireActor rejects anonymous writes before anything is looked up.
func requireActor(actor access.Actor) error {
	if !actor.Authenticated() {
		return apperr.Unauthenticated("authentication credentials were not provided")
	}
	return nil
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return fmt.Errorf("%s: %w", message, err)
}

func titleExists(ctx context.Context, db *gorm.DB, titleID uint) error {
	var t catalog.Title
	if err := db.WithContext(ctx).Select("id").First(&t, titleID).Error; err != nil {
		return notFound(err, "title not found")
	}
	return nil
}

// findReview loads a review scoped to its title.
func findReview(ctx context.Context, db *gorm.DB, titleID, reviewID uint) (*Review, error) {
	var r Review
	err := db.WithContext(ctx).
		Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&r).Error
	if err != nil {
		return nil, notFound(err, "review not found")
	}
	return &r, nil
}

func (s *Service) ListReviews(ctx context.Context, actor access.Actor, titleID uint) ([]Review, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	if err := titleExists(ctx, s.db, titleID); err != nil {
		return nil, err
	}
	var out []Review
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("title_id = ?", titleID).
		Order("pub_date, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (s *Service) GetReview(ctx context.Context, actor access.Actor, titleID, reviewID uint) (*Review, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	return findReview(ctx, s.db, titleID, reviewID)
}

// CreateReview publishes the actor's review of a title. A second review of the
// same title by the same author is a validation error.
func (s *Service) CreateReview(ctx context.Context, actor access.Actor, titleID uint, in ReviewInput) (*Review, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Content)); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	validateText(fields, in.Text)
	if in.Score == nil {
		fields["score"] = "score is required"
	} else {
		validateScore(fields, *in.Score)
	}
	if err := fieldErr(fields); err != nil {
		return nil, err
	}

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := titleExists(ctx, tx, titleID); err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&Review{}).Where("title_id = ? AND author_id = ?", titleID, actor.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("count reviews: %w", err)
		}
		if n > 0 {
			return duplicateReview()
		}
		r := Review{TitleID: titleID, AuthorID: actor.ID, Text: in.Text, Score: *in.Score}
		if err := tx.Omit("Author", "Title").Create(&r).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateReview()
			}
			return fmt.Errorf("create review: %w", err)
		}
		id = r.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "review created", "title_id", titleID, "review_id", id, "actor", actor.Username)
	return findReview(ctx, s.db, titleID, id)
}

func duplicateReview() error {
	return apperr.Validation("you have already reviewed this title", map[string]string{
		"non_field_errors": "you have already reviewed this title",
	})
}

func (s *Service) UpdateReview(ctx context.Context, actor access.Actor, titleID, reviewID uint, p ReviewPatch) (*Review, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	r, err := findReview(ctx, s.db, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := access.Check(actor, access.Update, access.Object(access.Content, r.AuthorID)); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	updates := map[string]any{}
	if p.Text != nil {
		validateText(fields, *p.Text)
		updates["text"] = *p.Text
	}
	if p.Score != nil {
		validateScore(fields, *p.Score)
		updates["score"] = *p.Score
	}
	if err := fieldErr(fields); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&Review{ID: r.ID}).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update review: %w", err)
		}
	}
	return findReview(ctx, s.db, titleID, reviewID)
}

// DeleteReview removes the review and its comments.
func (s *Service) DeleteReview(ctx context.Context, actor access.Actor, titleID, reviewID uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	r, err := findReview(ctx, s.db, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := access.Check(actor, access.Delete, access.Object(access.Content, r.AuthorID)); err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", r.ID).Delete(&Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Delete(&Review{}, r.ID).Error; err != nil {
			return fmt.Errorf("delete review: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "review deleted", "review_id", r.ID, "actor", actor.Username)
	return nil
}
