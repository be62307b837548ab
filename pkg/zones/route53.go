package zones

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

const pageSize = 100

type route53API interface {
	ListHostedZonesByName(
		ctx context.Context,
		params *route53.ListHostedZonesByNameInput,
		optFns ...func(*route53.Options),
	) (*route53.ListHostedZonesByNameOutput, error)
}

// Route53Resolver looks up public hosted zones by exact name, the same match
// the CDK hosted-zone context provider performs.
type Route53Resolver struct {
	client route53API
}

var _ Resolver = (*Route53Resolver)(nil)

func NewRoute53Resolver(client route53API) *Route53Resolver {
	return &Route53Resolver{client: client}
}

// NewRoute53ResolverFromConfig builds a resolver from the default AWS
// credential chain.
func NewRoute53ResolverFromConfig(ctx context.Context, region string) (*Route53Resolver, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, sitetheory.WrapError(sitetheory.ErrorCodeZoneLookupFailed, "load aws config", err)
	}
	return NewRoute53Resolver(route53.NewFromConfig(awsCfg)), nil
}

func (r *Route53Resolver) Resolve(ctx context.Context, domain string) (Zone, error) {
	if r == nil || r.client == nil {
		return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneLookupFailed, "route53 resolver is nil")
	}
	fqdn := naming.FQDN(domain)
	if fqdn == "" {
		return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneLookupFailed, "domain name is empty")
	}

	input := &route53.ListHostedZonesByNameInput{
		DNSName:  aws.String(fqdn),
		MaxItems: aws.Int32(pageSize),
	}

	var matches []types.HostedZone
	for {
		out, err := r.client.ListHostedZonesByName(ctx, input)
		if err != nil {
			return Zone{}, sitetheory.WrapError(sitetheory.ErrorCodeZoneLookupFailed, "list hosted zones for "+fqdn, err)
		}

		passed := false
		for _, hz := range out.HostedZones {
			name := aws.ToString(hz.Name)
			if name != fqdn {
				// Results are sorted by name starting at fqdn.
				passed = true
				break
			}
			if hz.Config != nil && hz.Config.PrivateZone {
				continue
			}
			matches = append(matches, hz)
		}

		if passed || !out.IsTruncated || aws.ToString(out.NextDNSName) != fqdn {
			break
		}
		input = &route53.ListHostedZonesByNameInput{
			DNSName:      out.NextDNSName,
			HostedZoneId: out.NextHostedZoneId,
			MaxItems:     aws.Int32(pageSize),
		}
	}

	switch len(matches) {
	case 0:
		return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneNotFound,
			"no public hosted zone named "+fqdn+"; create it before deploying")
	case 1:
		zone := Zone{
			ID:   normalizeZoneID(aws.ToString(matches[0].Id)),
			Name: naming.NormalizeDomain(aws.ToString(matches[0].Name)),
		}
		logger.Logger().Debug("resolved hosted zone", map[string]any{
			"zone_id":   zone.ID,
			"zone_name": zone.Name,
		})
		return zone, nil
	default:
		ids := make([]string, 0, len(matches))
		for _, hz := range matches {
			ids = append(ids, normalizeZoneID(aws.ToString(hz.Id)))
		}
		return Zone{}, sitetheory.NewError(sitetheory.ErrorCodeZoneLookupFailed,
			fmt.Sprintf("found %d public hosted zones named %s (%s), wanted exactly 1", len(matches), fqdn, strings.Join(ids, ", ")))
	}
}
