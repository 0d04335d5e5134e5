package catalog

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go-yamdb/internal/access"
	"go-yamdb/internal/apperr"

	"gorm.io/gorm"
)

// TitleInput is the write representation: category and genres by slug.
type TitleInput struct {
	Name        string   `json:"name"`
	Year        *int     `json:"year"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genre       []string `json:"genre"`
}

// TitlePatch carries only the fields present in a partial update.
type TitlePatch struct {
	Name        *string   `json:"name"`
	Year        *int      `json:"year"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Genre       *[]string `json:"genre"`
}

func (s *Service) validateName(fields map[string]string, name string) {
	switch {
	case strings.TrimSpace(name) == "":
		fields["name"] = "name is required"
	case utf8.RuneCountInString(name) > NameMaxLength:
		fields["name"] = "name must be at most 256 characters"
	}
}

func (s *Service) validateYear(fields map[string]string, year int) {
	if current := s.now().Year(); year > current {
		fields["year"] = fmt.Sprintf("year must not be later than %d", current)
	}
}

func fieldErr(fields map[string]string) error {
	if len(fields) > 0 {
		return apperr.Validation("invalid input", fields)
	}
	return nil
}

func (s *Service) ListTitles(ctx context.Context, actor access.Actor) ([]Title, error) {
	if err := access.Check(actor, access.Read, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	var out []Title
	err := s.db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name") }).
		Order("titles.name").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	return out, nil
}

func (s *Service) GetTitle(ctx context.Context, actor access.Actor, id uint) (*Title, error) {
	if err := access.Check(actor, access.Read, access.Object(access.Catalog, 0)); err != nil {
		return nil, err
	}
	return s.loadTitle(ctx, s.db, id)
}

func (s *Service) loadTitle(ctx context.Context, db *gorm.DB, id uint) (*Title, error) {
	var t Title
	err := db.WithContext(ctx).
		Select(ratingSelect).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name") }).
		Where("titles.id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, notFound(err, "title not found")
	}
	return &t, nil
}

func (s *Service) CreateTitle(ctx context.Context, actor access.Actor, in TitleInput) (*Title, error) {
	if err := access.Check(actor, access.Create, access.Collection(access.Catalog)); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	s.validateName(fields, in.Name)
	if in.Year == nil {
		fields["year"] = "year is required"
	} else {
		s.validateYear(fields, *in.Year)
	}
	if in.Category == "" {
		fields["category"] = "category is required"
	}
	if err := fieldErr(fields); err != nil {
		return nil, err
	}

	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, in.Category)
		if err != nil {
			return err
		}
		genres, err := findGenres(tx, in.Genre)
		if err != nil {
			return err
		}
		t := Title{
			Name:        strings.TrimSpace(in.Name),
			Year:        *in.Year,
			Description: in.Description,
			CategoryID:  &category.ID,
			Genres:      genres,
		}
		if err := tx.Omit("Genres.*").Create(&t).Error; err != nil {
			return fmt.Errorf("create title: %w", err)
		}
		id = t.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "title created", "title_id", id, "actor", actor.Username)
	return s.loadTitle(ctx, s.db, id)
}

func (s *Service) UpdateTitle(ctx context.Context, actor access.Actor, id uint, p TitlePatch) (*Title, error) {
	if err := access.Check(actor, access.Update, access.Object(access.Catalog, 0)); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	if p.Name != nil {
		s.validateName(fields, *p.Name)
	}
	if p.Year != nil {
		s.validateYear(fields, *p.Year)
	}
	if p.Category != nil && *p.Category == "" {
		fields["category"] = "category must not be empty"
	}
	if err := fieldErr(fields); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Title
		if err := tx.First(&t, id).Error; err != nil {
			return notFound(err, "title not found")
		}
		updates := map[string]any{}
		if p.Name != nil {
			updates["name"] = strings.TrimSpace(*p.Name)
		}
		if p.Year != nil {
			updates["year"] = *p.Year
		}
		if p.Description != nil {
			updates["description"] = *p.Description
		}
		if p.Category != nil {
			category, err := findCategory(tx, *p.Category)
			if err != nil {
				return err
			}
			updates["category_id"] = category.ID
		}
		if len(updates) > 0 {
			if err := tx.Model(&t).Updates(updates).Error; err != nil {
				return fmt.Errorf("update title: %w", err)
			}
		}
		if p.Genre != nil {
			genres, err := findGenres(tx, *p.Genre)
			if err != nil {
				return err
			}
			if err := tx.Model(&t).Association("Genres").Replace(genres); err != nil {
				return fmt.Errorf("replace genres: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.loadTitle(ctx, s.db, id)
}

// DeleteTitle removes the title with its reviews and their comments.
func (s *Service) DeleteTitle(ctx context.Context, actor access.Actor, id uint) error {
	if err := access.Check(actor, access.Delete, access.Object(access.Catalog, 0)); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t Title
		if err := tx.First(&t, id).Error; err != nil {
			return notFound(err, "title not found")
		}
		stmts := []string{
			"DELETE FROM comments WHERE review_id IN (SELECT id FROM reviews WHERE title_id = ?)",
			"DELETE FROM reviews WHERE title_id = ?",
			"DELETE FROM title_genres WHERE title_id = ?",
		}
		for _, q := range stmts {
			if err := tx.Exec(q, t.ID).Error; err != nil {
				return fmt.Errorf("delete title dependents: %w", err)
			}
		}
		if err := tx.Delete(&t).Error; err != nil {
			return fmt.Errorf("delete title: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "title deleted", "title_id", id, "actor", actor.Username)
	return nil
}

func findCategory(tx *gorm.DB, slug string) (*Category, error) {
	var c Category
	if err := tx.Where("slug = ?", slug).First(&c).Error; err != nil {
		if err := notFound(err, "category not found"); apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Field("category", fmt.Sprintf("unknown category %q", slug))
		}
		return nil, err
	}
	return &c, nil
}

func findGenres(tx *gorm.DB, slugs []string) ([]Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	unique := make([]string, 0, len(slugs))
	seen := map[string]bool{}
	for _, s := range slugs {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}
	var genres []Genre
	if err := tx.Where("slug IN ?", unique).Find(&genres).Error; err != nil {
		return nil, fmt.Errorf("load genres: %w", err)
	}
	if len(genres) != len(unique) {
		found := map[string]bool{}
		for _, g := range genres {
			found[g.Slug] = true
		}
		for _, s := range unique {
			if !found[s] {
				return nil, apperr.Field("genre", fmt.Sprintf("unknown genre %q", s))
			}
		}
	}
	return genres, nil
}
