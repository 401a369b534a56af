package api

import (
	"context"
	"time"
)

// QueryTimeout bounds every database and upstream call made by a handler
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with the standard query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}
