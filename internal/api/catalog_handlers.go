package api

import (
	"math"
	"net/http"

	"go-yamdb/internal/auth"
	"go-yamdb/internal/catalog"

	"github.com/gin-gonic/gin"
)

type termOut struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type titleOut struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Year        int       `json:"year"`
	Rating      *int      `json:"rating"`
	Description string    `json:"description"`
	Genre       []termOut `json:"genre"`
	Category    *termOut  `json:"category"`
}

func newTitleOut(t *catalog.Title) titleOut {
	out := titleOut{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Description: t.Description,
		Genre:       make([]termOut, 0, len(t.Genres)),
	}
	if t.Rating != nil {
		r := int(math.Round(*t.Rating))
		out.Rating = &r
	}
	for _, g := range t.Genres {
		out.Genre = append(out.Genre, termOut{Name: g.Name, Slug: g.Slug})
	}
	if t.Category != nil {
		out.Category = &termOut{Name: t.Category.Name, Slug: t.Category.Slug}
	}
	return out
}

// GET /categories
func ListCategoriesHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Catalog.ListCategories(c.Request.Context(), auth.ActorFrom(c))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// POST /categories  [admin only]
func CreateCategoryHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.TermInput
		if !bindJSON(c, &req) {
			return
		}
		item, err := d.Catalog.CreateCategory(c.Request.Context(), auth.ActorFrom(c), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// DELETE /categories/:slug  [admin only]
func DeleteCategoryHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Catalog.DeleteCategory(c.Request.Context(), auth.ActorFrom(c), c.Param("slug")); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /genres
func ListGenresHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := d.Catalog.ListGenres(c.Request.Context(), auth.ActorFrom(c))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// POST /genres  [admin only]
func CreateGenreHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.TermInput
		if !bindJSON(c, &req) {
			return
		}
		item, err := d.Catalog.CreateGenre(c.Request.Context(), auth.ActorFrom(c), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// DELETE /genres/:slug  [admin only]
func DeleteGenreHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := d.Catalog.DeleteGenre(c.Request.Context(), auth.ActorFrom(c), c.Param("slug")); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET /titles
func ListTitlesHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titles, err := d.Catalog.ListTitles(c.Request.Context(), auth.ActorFrom(c))
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		out := make([]titleOut, 0, len(titles))
		for i := range titles {
			out = append(out, newTitleOut(&titles[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// GET /titles/:title_id
func GetTitleHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "title_id", "title")
		if !ok {
			return
		}
		t, err := d.Catalog.GetTitle(c.Request.Context(), auth.ActorFrom(c), id)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newTitleOut(t))
	}
}

// POST /titles  [admin only]
func CreateTitleHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req catalog.TitleInput
		if !bindJSON(c, &req) {
			return
		}
		t, err := d.Catalog.CreateTitle(c.Request.Context(), auth.ActorFrom(c), req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, newTitleOut(t))
	}
}

// PATCH /titles/:title_id  [admin only]
func UpdateTitleHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "title_id", "title")
		if !ok {
			return
		}
		var req catalog.TitlePatch
		if !bindJSON(c, &req) {
			return
		}
		t, err := d.Catalog.UpdateTitle(c.Request.Context(), auth.ActorFrom(c), id, req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newTitleOut(t))
	}
}

// DELETE /titles/:title_id  [admin only]
func DeleteTitleHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "title_id", "title")
		if !ok {
			return
		}
		if err := d.Catalog.DeleteTitle(c.Request.Context(), auth.ActorFrom(c), id); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
