package postgres

import (
	"fmt"
	"slices"

	"gorm.io/gorm"
)

const defaultPageSize = 50

// applyPaginationAndSort orders by an allowed column and pages the query
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, allowed []string, limit, offset int) *gorm.DB {
	if !slices.Contains(allowed, sortBy) {
		sortBy = allowed[0]
	}
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if limit <= 0 {
		limit = defaultPageSize
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
