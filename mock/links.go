package mock

import (
	"context"

	"github.com/fwojciec/linkmap"
)

var _ linkmap.LinksService = (*LinksService)(nil)

// LinksService is a mock implementation of linkmap.LinksService.
type LinksService struct {
	ProcessLinksRequestFn func(ctx context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error)
}

func (s *LinksService) ProcessLinksRequest(ctx context.Context, req *linkmap.LinksRequest) (*linkmap.LinksResponse, error) {
	return s.ProcessLinksRequestFn(ctx, req)
}
