package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dkhilmaram/pizza2/models"
	"github.com/dkhilmaram/pizza2/storage"
	"github.com/dkhilmaram/pizza2/utils"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// GET /admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	var users []models.User
	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	role := strings.TrimSpace(ctx.URLParamDefault("role", ""))

	query := storage.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(email) LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)
	query = query.Offset((page - 1) * perPage).Limit(perPage)
	if err := query.Find(&users).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// GET /admin/reviews?rating=&page=&per_page= — raw review records with their
// comment threads, unmasked, for moderation.
func AdminListReviews(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	rating := ctx.URLParamDefault("rating", "")

	q := storage.DB.Model(&models.Review{})
	if rating != "" {
		if r, err := strconv.Atoi(rating); err == nil {
			q = q.Where("rating = ?", r)
		}
	}

	var total int64
	q.Count(&total)

	var items []models.Review
	err := q.
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("comments.id ASC") }).
		Preload("Comments.Replies", func(db *gorm.DB) *gorm.DB { return db.Order("replies.id ASC") }).
		Offset((page - 1) * perPage).Limit(perPage).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	utils.JSONPage(ctx, items, page, perPage, total)
}
