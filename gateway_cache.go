package mdo

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedGateway memoizes the successful analyses of another Gateway, keyed by geometry name
// and request. Geometries must have unique names for the cache to be correct.
type CachedGateway struct {
	next    Gateway
	cache   *expirable.LRU[string, AnalysisResult]
	metrics *Metrics
}

// NewCachedGateway wraps next with an LRU cache of the provided size and time to live.
func NewCachedGateway(next Gateway, size int, ttl time.Duration, metrics *Metrics) *CachedGateway {
	return &CachedGateway{
		next:    next,
		cache:   expirable.NewLRU[string, AnalysisResult](size, nil, ttl),
		metrics: metrics,
	}
}

func cacheKey(geo Geometry, req AnalysisRequest) string {
	c := req.Condition
	return fmt.Sprintf("%s|%g|%g|%g|%g|%g|%t|%t|%t", geo.Name(), c.Pressure, c.Temperature, c.Velocity, c.Mach, req.Alpha, req.TrimAlpha, req.TrimElevator, req.GroundEffect)
}

// Analyze implements the Gateway interface.
func (g *CachedGateway) Analyze(ctx context.Context, geo Geometry, req AnalysisRequest) (AnalysisResult, error) {
	key := cacheKey(geo, req)
	if rslt, ok := g.cache.Get(key); ok {
		g.metrics.cacheLookup(true)
		return copyResult(rslt), nil
	}
	g.metrics.cacheLookup(false)
	rslt, err := g.next.Analyze(ctx, geo, req)
	if err != nil {
		return rslt, err
	}
	g.cache.Add(key, copyResult(rslt))
	return rslt, nil
}

// Len returns the number of cached analyses.
func (g *CachedGateway) Len() int {
	return g.cache.Len()
}

func copyResult(r AnalysisResult) AnalysisResult {
	r.Strips = append([]StripLoad(nil), r.Strips...)
	return r
}
