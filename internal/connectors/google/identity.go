package google

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-connect/internal/core/domain"
	"github.com/custodia-labs/sercha-connect/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-connect/internal/logger"
)

// MaxTaskLists caps the dependent resource list.
const MaxTaskLists = 100

// Ensure TasksIdentityFetcher implements the interface.
var _ driven.IdentityFetcher = (*TasksIdentityFetcher)(nil)

// TasksIdentityFetcher resolves the Google account and task lists behind a token.
type TasksIdentityFetcher struct {
	opts     []option.ClientOption
	userInfo *RateLimiter
	tasks    *RateLimiter
}

// NewTasksIdentityFetcher creates a fetcher. Options are appended to every
// service, e.g. option.WithEndpoint in tests.
func NewTasksIdentityFetcher(opts ...option.ClientOption) *TasksIdentityFetcher {
	return &TasksIdentityFetcher{
		opts:     opts,
		userInfo: NewRateLimiter(ServiceUserInfo),
		tasks:    NewRateLimiter(ServiceTasks),
	}
}

// FetchIdentity returns the account behind token with its task lists.
// The email address is the account identifier.
func (f *TasksIdentityFetcher) FetchIdentity(ctx context.Context, token *domain.OAuthToken) (*domain.Identity, error) {
	if token == nil || token.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}
	ts := NewTokenSource(token)

	infoSvc, err := NewUserInfoService(ctx, ts, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("create userinfo service: %w", err)
	}
	if err := f.userInfo.Wait(ctx); err != nil {
		return nil, err
	}
	info, err := infoSvc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", WrapError(err))
	}
	if info.Email == "" {
		return nil, ErrNoEmail
	}

	identity := &domain.Identity{
		AccountID:   info.Email,
		Username:    info.Email,
		DisplayName: info.Name,
	}

	tasksSvc, err := NewTasksService(ctx, ts, f.opts...)
	if err != nil {
		return nil, fmt.Errorf("create tasks service: %w", err)
	}
	if err := f.tasks.Wait(ctx); err != nil {
		return nil, err
	}
	lists, err := tasksSvc.Tasklists.List().MaxResults(MaxTaskLists).Context(ctx).Do()
	if err != nil {
		err = WrapError(err)
		if IsRateLimited(err) {
			f.tasks.RecordRateLimitError(0)
		}
		logger.Warn("google-tasks: list task lists for %s: %v", identity.AccountID, err)
		return identity, nil
	}
	for _, list := range lists.Items {
		if list.Title != "" {
			identity.Resources = append(identity.Resources, list.Title)
		}
	}
	return identity, nil
}
