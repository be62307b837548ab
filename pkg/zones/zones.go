// Package zones resolves the pre-existing Route 53 hosted zone a site's
// records and certificate validation live in. Zones are never created here.
package zones

import (
	"context"
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// Zone identifies a hosted zone.
type Zone struct {
	ID   string
	Name string
}

// Resolver finds the hosted zone for a domain name.
//
// Implementations return a SiteError with ErrorCodeZoneNotFound when no zone
// matches, and ErrorCodeZoneLookupFailed for any other failure.
type Resolver interface {
	Resolve(ctx context.Context, domain string) (Zone, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, domain string) (Zone, error)

func (f ResolverFunc) Resolve(ctx context.Context, domain string) (Zone, error) {
	return f(ctx, domain)
}

// Static returns a Resolver that answers with a fixed zone. It still refuses
// domains that do not belong to the zone.
func Static(id, name string) Resolver {
	zone := Zone{ID: normalizeZoneID(id), Name: naming.NormalizeDomain(name)}
	return ResolverFunc(func(_ context.Context, domain string) (Zone, error) {
		domain = naming.NormalizeDomain(domain)
		if !InZone(domain, zone.Name) {
			return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneNotFound,
				"domain "+domain+" is not in hosted zone "+zone.Name)
		}
		return zone, nil
	})
}

// InZone reports whether domain equals zoneName or is a subdomain of it.
func InZone(domain, zoneName string) bool {
	domain = naming.NormalizeDomain(domain)
	zoneName = naming.NormalizeDomain(zoneName)
	if domain == "" || zoneName == "" {
		return false
	}
	return domain == zoneName || strings.HasSuffix(domain, "."+zoneName)
}

func normalizeZoneID(id string) string {
	id = strings.TrimSpace(id)
	return strings.TrimPrefix(id, "/hostedzone/")
}
