package catalog

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"
	"go-yamdb/internal/logging"

	"gorm.io/gorm"
)

const (
	NameMaxLength = 256
	SlugMaxLength = 50
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ratingSelect annotates titles with the average score of their reviews.
const ratingSelect = "titles.*, (SELECT AVG(reviews.score) FROM reviews WHERE reviews.title_id = titles.id) AS rating"

type Service struct {
	db  *gorm.DB
	log logging.Logger
	now func() time.Time
}

func NewService(db *gorm.DB, log logging.Logger) *Service {
	return &Service{db: db, log: log, now: time.Now}
}

// TermInput creates a category or a genre.
type TermInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (in TermInput) validate() error {
	fields := map[string]string{}
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		fields["name"] = "name is required"
	case utf8.RuneCountInString(name) > NameMaxLength:
		fields["name"] = "name must be at most 256 characters"
	}
	switch {
	case in.Slug == "":
		fields["slug"] = "slug is required"
	case len(in.Slug) > SlugMaxLength:
		fields["slug"] = "slug must be at most 50 characters"
	case !slugPattern.MatchString(in.Slug):
		fields["slug"] = "slug may contain only letters, digits, hyphens and underscores"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid input", fields)
	}
	return nil
}

func (s *Service) ListCategories(ctx context.Context, actor access.Actor) ([]Category, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	var out []Category
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (s *Service) CreateCategory(ctx context.Context, actor access.Actor, in TermInput) (*Category, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := Category{Name: strings.TrimSpace(in.Name), Slug: in.Slug}
	if err := createTerm(ctx, s.db, &c); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "category created", "slug", c.Slug, "actor", actor.Username)
	return &c, nil
}

// DeleteCategory detaches titles from the category before removing it.
func (s *Service) DeleteCategory(ctx context.Context, actor access.Actor, slug string) error {
	if err := access.Check(actor, access.Delete, access.Object(access.Catalog, 0)); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c Category
		if err := tx.Where("slug = ?", slug).First(&c).Error; err != nil {
			return notFound(err, "category not found")
		}
		if err := tx.Model(&Title{}).Where("category_id = ?", c.ID).Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("detach titles: %w", err)
		}
		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
}

func (s *Service) ListGenres(ctx context.Context, actor access.Actor) ([]Genre, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	var out []Genre
	if err := s.db.WithContext(ctx).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return out, nil
}

func (s *Service) CreateGenre(ctx context.Context, actor access.Actor, in TermInput) (*Genre, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	g := Genre{Name: strings.TrimSpace(in.Name), Slug: in.Slug}
	if err := createTerm(ctx, s.db, &g); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "genre created", "slug", g.Slug, "actor", actor.Username)
	return &g, nil
}

func (s *Service) DeleteGenre(ctx context.Context, actor access.Actor, slug string) error {
	if err := access.Check(actor, access.Delete, access.Object(access.Catalog, 0)); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Genre
		if err := tx.Where("slug = ?", slug).First(&g).Error; err != nil {
			return notFound(err, "genre not found")
		}
		if err := tx.Exec("DELETE FROM title_genres WHERE genre_id = ?", g.ID).Error; err != nil {
			return fmt.Errorf("detach titles: %w", err)
		}
		if err := tx.Delete(&g).Error; err != nil {
			return fmt.Errorf("delete genre: %w", err)
		}
		return nil
	})
}

func createTerm[T any](ctx context.Context, db *gorm.DB, term *T) error {
	if err := db.WithContext(ctx).Create(term).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Field("slug", "slug already exists")
		}
		return fmt.Errorf("create: %w", err)
	}
	return nil
}

// notFound maps gorm's missing-row error to a NotFound and wraps anything else.
func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(message)
	}
	return fmt.Errorf("%s: %w", message, err)
}
