// Package ops composes store actions and derived views into the operations
// shared by the CLI, the MCP server and the HTTP API.
package ops

import (
	"strings"

	"github.com/buriosa/buriosa/internal/errors"
	"github.com/buriosa/buriosa/internal/model"
	"github.com/buriosa/buriosa/internal/store"
)

// Pagination limits
const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
}

// paginate clamps limit and offset and returns the page bounds of total items.
func paginate(limit, offset, total int) (int, int, Pagination) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	offset = max(offset, 0)

	start := min(offset, total)
	end := min(start+limit, total)
	return start, end, Pagination{
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
		Total:   total,
	}
}

// requireRepo trims id and checks the repository exists.
func requireRepo(st *store.Store, id string) (*model.Repository, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.NewInvalidRequest("repository id is required")
	}
	r := st.Repo(id)
	if r == nil {
		return nil, errors.NewNotFound("repository", id)
	}
	return r, nil
}
