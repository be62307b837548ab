package descriptor

import (
	"context"
	"testing"

	"pgregory.net/rapid"

	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/zones"
)

func genConfig(includeWww bool) *rapid.Generator[config.Config] {
	return rapid.Custom(func(t *rapid.T) config.Config {
		cfg := config.Default()
		cfg.Account = rapid.StringMatching(`[0-9]{12}`).Draw(t, "account")
		cfg.Region = rapid.SampledFrom([]string{"us-east-1", "us-west-2", "eu-west-1", "eu-central-1", "ap-southeast-2"}).Draw(t, "region")
		cfg.DomainName = rapid.StringMatching(`([a-z][a-z0-9]{0,10}\.)?[a-z][a-z0-9-]{0,15}[a-z0-9]\.(com|org|net|io|dev)`).Draw(t, "domain")
		cfg.BucketName = rapid.OneOf(
			rapid.Just(""),
			rapid.StringMatching(`[a-z0-9][a-z0-9-]{2,30}[a-z0-9]`),
		).Draw(t, "bucket")
		cfg.IncludeWwwRedirect = includeWww
		return cfg
	})
}

func mustBuild(t *rapid.T, cfg config.Config) *Site {
	site, err := Build(context.Background(), cfg, zones.Static("Z0123456789", cfg.DomainName))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if site == nil {
		t.Fatalf("Build returned nil site without error")
	}
	return site
}

// For any valid configuration the graph holds exactly one of each resource
// and two edge functions.
func TestProperty_ResourceCardinality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		site := mustBuild(t, genConfig(true).Draw(t, "cfg"))

		want := map[Kind]int{
			KindBucket:       1,
			KindEdgeFunction: 2,
			KindHostedZone:   1,
			KindCertificate:  1,
			KindDistribution: 1,
			KindAliasRecord:  1,
			KindCnameRecord:  1,
		}
		for kind, n := range want {
			if got := site.Count(kind); got != n {
				t.Fatalf("Count(%s) = %d, want %d", kind, got, n)
			}
		}
		if got := len(site.Descriptors()); got != 8 {
			t.Fatalf("descriptors = %d, want 8", got)
		}
	})
}

func TestProperty_BucketIsPrivateAndRetained(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := genConfig(rapid.Bool().Draw(t, "www")).Draw(t, "cfg")
		site := mustBuild(t, cfg)

		if site.Bucket.PublicAccess != PublicAccessBlocked {
			t.Fatalf("public access = %q", site.Bucket.PublicAccess)
		}
		if site.Bucket.Removal != RemovalRetain {
			t.Fatalf("removal = %q", site.Bucket.Removal)
		}
		if site.Bucket.AutoDeleteObjects {
			t.Fatalf("auto delete objects enabled")
		}
		if site.Bucket.Name != cfg.BucketName {
			t.Fatalf("bucket name = %q, want %q", site.Bucket.Name, cfg.BucketName)
		}
	})
}

func TestProperty_CertificateCoversDistributionAliases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		site := mustBuild(t, genConfig(rapid.Bool().Draw(t, "www")).Draw(t, "cfg"))

		names := site.Certificate.AlternativeNames
		aliases := site.Distribution.Aliases
		if len(names) != len(aliases) {
			t.Fatalf("alternative names %v != aliases %v", names, aliases)
		}
		for i := range names {
			if names[i] != aliases[i] {
				t.Fatalf("alternative names %v != aliases %v", names, aliases)
			}
		}
		if site.Distribution.Certificate != site.Certificate {
			t.Fatalf("distribution does not reference the site certificate")
		}
	})
}

func TestProperty_CertificateRegionIsFixed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := genConfig(rapid.Bool().Draw(t, "www")).Draw(t, "cfg")
		site := mustBuild(t, cfg)

		if site.Certificate.ValidationRegion != CertificateRegion {
			t.Fatalf("certificate region = %q with stack region %q", site.Certificate.ValidationRegion, cfg.Region)
		}
		if site.Certificate.Validation != ValidationDNS {
			t.Fatalf("validation = %q", site.Certificate.Validation)
		}
	})
}

func TestProperty_CnameTargetsApex(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := genConfig(true).Draw(t, "cfg")
		site := mustBuild(t, cfg)

		if site.CnameRecord.Target != cfg.DomainName {
			t.Fatalf("cname target = %q, want %q", site.CnameRecord.Target, cfg.DomainName)
		}
		if site.CnameRecord.RecordName != "www."+cfg.DomainName {
			t.Fatalf("cname name = %q", site.CnameRecord.RecordName)
		}
		if site.CnameRecord.After != site.AliasRecord {
			t.Fatalf("cname is not ordered after the alias record")
		}
		if site.AliasRecord.RecordName != cfg.DomainName {
			t.Fatalf("alias record name = %q", site.AliasRecord.RecordName)
		}
	})
}

// Every dependency appears before its dependent, and the stable topological
// order equals construction order.
func TestProperty_NoForwardReferences(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		site := mustBuild(t, genConfig(rapid.Bool().Draw(t, "www")).Draw(t, "cfg"))

		seen := map[string]bool{}
		var ids []string
		for _, d := range site.Descriptors() {
			for _, dep := range d.DependsOn() {
				if !seen[dep.ID()] {
					t.Fatalf("%s references %s before it exists", d.ID(), dep.ID())
				}
			}
			seen[d.ID()] = true
			ids = append(ids, d.ID())
		}

		order, err := site.Order()
		if err != nil {
			t.Fatalf("Order failed: %v", err)
		}
		if len(order) != len(ids) {
			t.Fatalf("order %v, want %v", order, ids)
		}
		for i := range ids {
			if order[i] != ids[i] {
				t.Fatalf("order %v, want %v", order, ids)
			}
		}
	})
}
