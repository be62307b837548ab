package descriptor

import (
	"context"
	"fmt"
	"time"

	"github.com/dominikbraun/graph"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/zones"
)

const (
	notFoundPagePath = "/404.html"
	errorCachingTTL  = 30 * time.Minute
)

// Build validates cfg, resolves the hosted zone and assembles the site graph.
//
// The zone lookup runs before any descriptor is allocated. When it fails Build
// returns nil and the lookup error; callers never see a partial graph.
func Build(ctx context.Context, cfg config.Config, resolver zones.Resolver) (*Site, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, sitetheory.NewError(sitetheory.ErrorCodeInternal, "hosted zone resolver is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	apex := naming.NormalizeDomain(cfg.DomainName)
	zone, err := resolveZone(ctx, cfg, resolver, apex)
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	site := &Site{
		Namespace:          naming.Namespace(cfg.Namespace),
		Domain:             apex,
		IncludeWwwRedirect: cfg.IncludeWwwRedirect,
	}

	site.Bucket = &Bucket{
		Name:              cfg.BucketName,
		Encryption:        EncryptionS3Managed,
		PublicAccess:      PublicAccessBlocked,
		Removal:           RemovalRetain,
		AutoDeleteObjects: false,
		EnforceSSL:        true,
	}
	b.add(site.Bucket)

	site.SecurityHeaders = &EdgeFunction{
		LogicalID: IDSecurityHeaders,
		Name:      naming.ResourceName(site.Namespace, "security-headers", ""),
		Role:      RoleSecurityHeaders,
		EventType: EventViewerResponse,
		CodePath:  cfg.HeadersFunctionPath,
		Comment:   "Adds security headers to every response",
	}
	b.add(site.SecurityHeaders)

	if cfg.IncludeWwwRedirect {
		site.WwwRedirect = &EdgeFunction{
			LogicalID: IDWwwRedirect,
			Name:      naming.ResourceName(site.Namespace, "www-redirect", ""),
			Role:      RoleWwwRedirect,
			EventType: EventViewerRequest,
			CodePath:  cfg.RedirectFunctionPath,
			Comment:   "Redirects www." + apex + " to " + apex,
		}
		b.add(site.WwwRedirect)
	}

	site.Zone = &HostedZone{ZoneID: zone.ID, ZoneName: zone.Name}
	b.add(site.Zone)

	site.Certificate = &Certificate{
		PrimaryDomain:    apex,
		AlternativeNames: site.aliases(),
		ValidationRegion: CertificateRegion,
		Validation:       ValidationDNS,
		Zone:             site.Zone,
	}
	b.add(site.Certificate)

	functions := []*EdgeFunction{site.SecurityHeaders}
	if site.WwwRedirect != nil {
		functions = append(functions, site.WwwRedirect)
	}
	site.Distribution = &Distribution{
		Origin:            site.Bucket,
		Functions:         functions,
		Certificate:       site.Certificate,
		Aliases:           site.aliases(),
		DefaultRootObject: DefaultRootObject,
		ViewerProtocol:    RedirectToHTTPS,
		MinimumTLS:        MinimumTLS,
		HTTPVersion:       HTTPVersion,
		AllowedMethods:    AllowedMethods,
		Compress:          true,
		ErrorResponses: []ErrorResponse{{
			HTTPStatus:         403,
			ResponseHTTPStatus: 403,
			ResponsePagePath:   notFoundPagePath,
			TTL:                errorCachingTTL,
		}},
	}
	b.add(site.Distribution)

	site.AliasRecord = &AliasRecord{
		RecordName: apex,
		Target:     site.Distribution,
		Zone:       site.Zone,
	}
	b.add(site.AliasRecord)

	if cfg.IncludeWwwRedirect {
		site.CnameRecord = &CnameRecord{
			RecordName: naming.WwwName(apex),
			Target:     apex,
			Zone:       site.Zone,
			After:      site.AliasRecord,
		}
		b.add(site.CnameRecord)
	}

	if b.err != nil {
		return nil, sitetheory.WrapError(sitetheory.ErrorCodeInternal, "assemble site graph", b.err)
	}
	site.order = b.order
	site.graph = b.graph

	logger.Logger().Info("site graph assembled", map[string]any{
		"domain_name":  apex,
		"hosted_zone":  zone.ID,
		"descriptors":  len(site.order),
		"www_redirect": cfg.IncludeWwwRedirect,
	})
	return site, nil
}

func resolveZone(ctx context.Context, cfg config.Config, resolver zones.Resolver, apex string) (zones.Zone, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, cfg.ZoneLookupTimeout)
	defer cancel()

	zone, err := resolver.Resolve(lookupCtx, apex)
	if err != nil {
		logger.Logger().Error("hosted zone lookup failed", map[string]any{
			"domain_name": apex,
			"error":       err.Error(),
		})
		if sitetheory.CodeOf(err) == sitetheory.ErrorCodeInternal {
			return zones.Zone{}, sitetheory.WrapError(sitetheory.ErrorCodeZoneLookupFailed, "hosted zone lookup for "+apex, err)
		}
		return zones.Zone{}, err
	}
	if zone.ID == "" || !zones.InZone(apex, zone.Name) {
		return zones.Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneNotFound,
			fmt.Sprintf("resolver returned zone %q (%s) which does not contain %s", zone.Name, zone.ID, apex))
	}
	return zone, nil
}

// builder records construction order and mirrors every descriptor into a
// cycle-checked graph. A dependency that was not added first is an error.
type builder struct {
	graph graph.Graph[string, Descriptor]
	order []Descriptor
	err   error
}

func newBuilder() *builder {
	return &builder{
		graph: graph.New(Descriptor.ID, graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
	}
}

func (b *builder) add(d Descriptor) {
	if b.err != nil {
		return
	}
	if err := b.graph.AddVertex(d); err != nil {
		b.err = fmt.Errorf("add %s: %w", d.ID(), err)
		return
	}
	for _, dep := range d.DependsOn() {
		if _, err := b.graph.Vertex(dep.ID()); err != nil {
			b.err = fmt.Errorf("%s references %s before it was built: %w", d.ID(), dep.ID(), err)
			return
		}
		if err := b.graph.AddEdge(dep.ID(), d.ID()); err != nil {
			b.err = fmt.Errorf("edge %s -> %s: %w", dep.ID(), d.ID(), err)
			return
		}
	}
	b.order = append(b.order, d)
}
