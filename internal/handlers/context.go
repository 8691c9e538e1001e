package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/middleware"
	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id placed by the auth middleware.
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// listMeta builds pagination metadata from normalised list options.
func listMeta(opts services.ListOptions, total int64) *response.Meta {
	page := opts.Page
	if page < 1 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}

	return &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
