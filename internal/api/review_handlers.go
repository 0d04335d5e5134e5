package api

import (
	"net/http"
	"time"

	"go-yamdb/internal/auth"
	"go-yamdb/internal/review"

	"github.com/gin-gonic/gin"
)

type reviewOut struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

type commentOut struct {
	ID      uint      `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewOut(r *review.Review) reviewOut {
	return reviewOut{ID: r.ID, Text: r.Text, Author: r.Author.Username, Score: r.Score, PubDate: r.PubDate}
}

func newCommentOut(cm *review.Comment) commentOut {
	return commentOut{ID: cm.ID, Text: cm.Text, Author: cm.Author.Username, PubDate: cm.PubDate}
}

// reviewPath reads title_id and review_id.
func reviewPath(c *gin.Context) (titleID, reviewID uint, ok bool) {
	if titleID, ok = pathID(c, "title_id", "title"); !ok {
		return
	}
	reviewID, ok = pathID(c, "review_id", "review")
	return
}

// GET /titles/:title_id/reviews
func ListReviewsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, ok := pathID(c, "title_id", "title")
		if !ok {
			return
		}
		items, err := d.Reviews.ListReviews(c.Request.Context(), auth.ActorFrom(c), titleID)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		out := make([]reviewOut, 0, len(items))
		for i := range items {
			out = append(out, newReviewOut(&items[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// POST /titles/:title_id/reviews
func CreateReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, ok := pathID(c, "title_id", "title")
		if !ok {
			return
		}
		var req review.ReviewInput
		if !bindJSON(c, &req) {
			return
		}
		r, err := d.Reviews.CreateReview(c.Request.Context(), auth.ActorFrom(c), titleID, req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, newReviewOut(r))
	}
}

// GET /titles/:title_id/reviews/:review_id
func GetReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		r, err := d.Reviews.GetReview(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newReviewOut(r))
	}
}

// PATCH /titles/:title_id/reviews/:review_id  [author or moderator]
func UpdateReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		var req review.ReviewPatch
		if !bindJSON(c, &req) {
			return
		}
		r, err := d.Reviews.UpdateReview(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID, req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newReviewOut(r))
	}
}

// DELETE /titles/:title_id/reviews/:review_id  [author or moderator]
func DeleteReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		if err := d.Reviews.DeleteReview(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GET .../reviews/:review_id/comments
func ListCommentsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		items, err := d.Reviews.ListComments(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		out := make([]commentOut, 0, len(items))
		for i := range items {
			out = append(out, newCommentOut(&items[i]))
		}
		c.JSON(http.StatusOK, out)
	}
}

// POST .../reviews/:review_id/comments
func CreateCommentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		var req review.CommentInput
		if !bindJSON(c, &req) {
			return
		}
		cm, err := d.Reviews.CreateComment(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID, req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusCreated, newCommentOut(cm))
	}
}

// GET .../comments/:comment_id
func GetCommentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		commentID, ok := pathID(c, "comment_id", "comment")
		if !ok {
			return
		}
		cm, err := d.Reviews.GetComment(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID, commentID)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newCommentOut(cm))
	}
}

// PATCH .../comments/:comment_id  [author or moderator]
func UpdateCommentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		commentID, ok := pathID(c, "comment_id", "comment")
		if !ok {
			return
		}
		var req review.CommentPatch
		if !bindJSON(c, &req) {
			return
		}
		cm, err := d.Reviews.UpdateComment(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID, commentID, req)
		if err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.JSON(http.StatusOK, newCommentOut(cm))
	}
}

// DELETE .../comments/:comment_id  [author or moderator]
func DeleteCommentHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		titleID, reviewID, ok := reviewPath(c)
		if !ok {
			return
		}
		commentID, ok := pathID(c, "comment_id", "comment")
		if !ok {
			return
		}
		if err := d.Reviews.DeleteComment(c.Request.Context(), auth.ActorFrom(c), titleID, reviewID, commentID); err != nil {
			writeError(c, d.Log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
