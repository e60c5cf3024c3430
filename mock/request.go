package mock

import (
	"context"

	"github.com/fwojciec/agendex"
)

var _ agendex.RequestService = (*RequestService)(nil)

// RequestService is a mock implementation of agendex.RequestService.
type RequestService struct {
	CreateRequestFn          func(ctx context.Context, req *agendex.IngestRequest) error
	FindRequestByIDFn        func(ctx context.Context, id string) (*agendex.IngestRequest, error)
	FindRequestBySourceURLFn func(ctx context.Context, sourceURL string) (*agendex.IngestRequest, error)
	FindRequestByLegacyURLFn func(ctx context.Context, url string) (*agendex.IngestRequest, error)
	FindRequestsFn           func(ctx context.Context, filter agendex.RequestFilter) ([]*agendex.IngestRequest, error)
	ListSourceURLsFn         func(ctx context.Context) ([]string, error)
	UpdateRequestDataFn      func(ctx context.Context, id string, data map[string]any) error
}

func (s *RequestService) CreateRequest(ctx context.Context, req *agendex.IngestRequest) error {
	return s.CreateRequestFn(ctx, req)
}

func (s *RequestService) FindRequestByID(ctx context.Context, id string) (*agendex.IngestRequest, error) {
	return s.FindRequestByIDFn(ctx, id)
}

func (s *RequestService) FindRequestBySourceURL(ctx context.Context, sourceURL string) (*agendex.IngestRequest, error) {
	return s.FindRequestBySourceURLFn(ctx, sourceURL)
}

func (s *RequestService) FindRequestByLegacyURL(ctx context.Context, url string) (*agendex.IngestRequest, error) {
	return s.FindRequestByLegacyURLFn(ctx, url)
}

func (s *RequestService) FindRequests(ctx context.Context, filter agendex.RequestFilter) ([]*agendex.IngestRequest, error) {
	return s.FindRequestsFn(ctx, filter)
}

func (s *RequestService) ListSourceURLs(ctx context.Context) ([]string, error) {
	return s.ListSourceURLsFn(ctx)
}

func (s *RequestService) UpdateRequestData(ctx context.Context, id string, data map[string]any) error {
	return s.UpdateRequestDataFn(ctx, id, data)
}

var _ agendex.Authorizer = (*Authorizer)(nil)

// Authorizer is a mock implementation of agendex.Authorizer.
type Authorizer struct {
	IsAdminFn   func(ctx context.Context, token string) (bool, error)
	CanManageFn func(ctx context.Context, token string, owner agendex.OwnerRef) (bool, error)
}

func (a *Authorizer) IsAdmin(ctx context.Context, token string) (bool, error) {
	return a.IsAdminFn(ctx, token)
}

func (a *Authorizer) CanManage(ctx context.Context, token string, owner agendex.OwnerRef) (bool, error) {
	return a.CanManageFn(ctx, token, owner)
}
