package zones

import (
	"context"
	"fmt"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// ContextCache answers from lookups the CDK CLI already recorded in
// cdk.context.json and defers to Next otherwise. Synth in CI then needs no
// Route 53 credentials once the cache is committed.
type ContextCache struct {
	Source  config.Source
	Account string
	Region  string
	Next    Resolver
}

var _ Resolver = (*ContextCache)(nil)

// ContextKey returns the key the CDK hosted-zone provider caches under.
func ContextKey(account, region, domain string) string {
	return fmt.Sprintf("hosted-zone:account=%s:domainName=%s:region=%s", account, naming.NormalizeDomain(domain), region)
}

func (c *ContextCache) Resolve(ctx context.Context, domain string) (Zone, error) {
	if c.Source != nil {
		key := ContextKey(c.Account, c.Region, domain)
		if v, ok := c.Source.Lookup(key); ok {
			if zone, ok := zoneFromContext(v); ok {
				logger.Logger().Debug("hosted zone from context cache", map[string]any{"context_key": key})
				return zone, nil
			}
			logger.Logger().Warn("ignoring malformed hosted zone context entry", map[string]any{"context_key": key})
		}
	}
	if c.Next == nil {
		return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneNotFound,
			"no cached hosted zone for "+naming.NormalizeDomain(domain))
	}
	return c.Next.Resolve(ctx, domain)
}

func zoneFromContext(v any) (Zone, bool) {
	var id, name any
	switch typed := v.(type) {
	case map[string]any:
		id, name = typed["Id"], typed["Name"]
	case config.MapSource:
		id, name = typed["Id"], typed["Name"]
	default:
		return Zone{}, false
	}
	idStr, ok1 := id.(string)
	nameStr, ok2 := name.(string)
	if !ok1 || !ok2 || idStr == "" || nameStr == "" {
		return Zone{}, false
	}
	return Zone{ID: normalizeZoneID(idStr), Name: naming.NormalizeDomain(nameStr)}, true
}
