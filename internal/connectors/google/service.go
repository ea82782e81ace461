package google

import (
	"context"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/tasks/v1"
)

// NewTasksService creates a Google Tasks API service using the provided TokenSource.
func NewTasksService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*tasks.Service, error) {
	return tasks.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}

// NewUserInfoService creates an OAuth2 userinfo service using the provided TokenSource.
func NewUserInfoService(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*oauth2api.Service, error) {
	return oauth2api.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)...)
}
