package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"shopadmin/pkg/response"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// TotalPages computes the page count for a collection. Empty collections
// still report a single page so clients never divide by zero.
func TotalPages(totalItems int64, limit int) int {
	if limit <= 0 {
		limit = DefaultLimit
	}
	pages := int((totalItems + int64(limit) - 1) / int64(limit))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Block builds the response pagination block for a query result.
func Block(p Params, totalItems int64) response.Pagination {
	return response.Pagination{
		CurrentPage: p.Page,
		TotalPages:  TotalPages(totalItems, p.Limit),
		TotalItems:  totalItems,
		Limit:       p.Limit,
	}
}
