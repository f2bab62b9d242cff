package utils

import (
	"context"
	"time"
)

const (
	// DefaultQueryTimeout bounds a single request's store work.
	DefaultQueryTimeout = 15 * time.Second
	// ReportQueryTimeout bounds report composition, which loads whole projects.
	ReportQueryTimeout = 45 * time.Second
	// JobQueryTimeout bounds one background job run.
	JobQueryTimeout = 5 * time.Minute
)

// GetQueryContext derives a context with timeout. A nil parent means Background.
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

func GetReportQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, ReportQueryTimeout)
}

func GetJobQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, JobQueryTimeout)
}
