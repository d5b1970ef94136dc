package app

import (
	"context"
	"fmt"
	"time"

	"howsitter/internal/domain"
)

func propertyCacheKey(id string) string { return "property:" + id }

func sittersCacheKey(pg domain.PageQuery) string {
	return fmt.Sprintf("sitters:%d:%d", pg.Page, pg.Limit)
}

// QueryService is the cached read path for the hot GET endpoints: property
// detail and the sitter directory. Write paths invalidate through the same
// keys.
type QueryService struct {
	props    domain.PropertyRepository
	users    domain.UserRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(props domain.PropertyRepository, users domain.UserRepository, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{props: props, users: users, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) GetProperty(ctx context.Context, id string) (domain.PropertyDetail, error) {
	key := propertyCacheKey(id)
	var pd domain.PropertyDetail
	if ok, _ := s.cache.Get(ctx, key, &pd); ok {
		return pd, nil
	}
	pd, err := s.props.GetProperty(ctx, id)
	if err != nil {
		return domain.PropertyDetail{}, err
	}
	_ = s.cache.Set(ctx, key, pd, int(s.cacheTTL.Seconds()))
	return pd, nil
}

func (s *QueryService) ListSitters(ctx context.Context, pg domain.PageQuery) (domain.SittersPage, error) {
	if pg.Limit <= 0 || pg.Limit > 100 {
		pg.Limit = 12
	}
	if pg.Page < 1 {
		pg.Page = 1
	}
	key := sittersCacheKey(pg)
	var out domain.SittersPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	out, err := s.users.ListSitters(ctx, pg)
	if err != nil {
		return domain.SittersPage{}, err
	}
	// copy to avoid aliasing the repo's backing array in the cached value
	cp := out
	if n := len(out.Items); n > 0 {
		cp.Items = make([]domain.SitterView, n)
		copy(cp.Items, out.Items)
	}
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}
