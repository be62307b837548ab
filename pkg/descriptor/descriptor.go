// Package descriptor models a static site as a graph of inert resource
// descriptors. Build assembles the graph in dependency order; nothing here
// talks to CloudFormation or the CDK.
package descriptor

import "time"

// Kind names a descriptor type.
type Kind string

const (
	KindBucket       Kind = "bucket"
	KindEdgeFunction Kind = "edge_function"
	KindHostedZone   Kind = "hosted_zone"
	KindCertificate  Kind = "certificate"
	KindDistribution Kind = "distribution"
	KindAliasRecord  Kind = "alias_record"
	KindCnameRecord  Kind = "cname_record"
)

// CertificateRegion is where CloudFront requires viewer certificates to live.
const CertificateRegion = "us-east-1"

// Logical ids, shared with the CDK construct ids.
const (
	IDBucket          = "SiteBucket"
	IDSecurityHeaders = "SecurityHeaders"
	IDWwwRedirect     = "WwwRedirect"
	IDHostedZone      = "HostedZone"
	IDCertificate     = "SiteCertificate"
	IDDistribution    = "SiteDistribution"
	IDAliasRecord     = "SiteAliasRecord"
	IDCnameRecord     = "SiteCnameRecord"
)

// Descriptor is one node of the site graph.
type Descriptor interface {
	ID() string
	Kind() Kind
	// DependsOn lists the descriptors this one references. All of them were
	// constructed earlier.
	DependsOn() []Descriptor
}

type (
	Encryption     string
	PublicAccess   string
	RemovalPolicy  string
	FunctionRole   string
	EventType      string
	Validation     string
	ViewerProtocol string
)

const (
	EncryptionS3Managed Encryption     = "S3_MANAGED"
	PublicAccessBlocked PublicAccess   = "BLOCK_ALL"
	RemovalRetain       RemovalPolicy  = "RETAIN"
	ValidationDNS       Validation     = "DNS"
	RedirectToHTTPS     ViewerProtocol = "redirect-to-https"

	RoleSecurityHeaders FunctionRole = "security_headers"
	RoleWwwRedirect     FunctionRole = "www_redirect"

	EventViewerRequest  EventType = "viewer-request"
	EventViewerResponse EventType = "viewer-response"
)

const (
	DefaultRootObject = "index.html"
	MinimumTLS        = "TLSv1.2_2021"
	HTTPVersion       = "http2and3"
	AllowedMethods    = "GET_HEAD_OPTIONS"
)

// Bucket is the private origin bucket. Public access and removal are not
// configurable.
type Bucket struct {
	// Name is empty when CloudFormation should generate it.
	Name              string
	Encryption        Encryption
	PublicAccess      PublicAccess
	Removal           RemovalPolicy
	AutoDeleteObjects bool
	EnforceSSL        bool
}

func (b *Bucket) ID() string              { return IDBucket }
func (b *Bucket) Kind() Kind              { return KindBucket }
func (b *Bucket) DependsOn() []Descriptor { return nil }

// EdgeFunction is a CloudFront Function whose code is read from CodePath at
// synthesis time.
type EdgeFunction struct {
	LogicalID string
	Name      string
	Role      FunctionRole
	EventType EventType
	CodePath  string
	Comment   string
}

func (f *EdgeFunction) ID() string              { return f.LogicalID }
func (f *EdgeFunction) Kind() Kind              { return KindEdgeFunction }
func (f *EdgeFunction) DependsOn() []Descriptor { return nil }

// HostedZone is the result of looking up an existing zone. It is a reference,
// not a declaration.
type HostedZone struct {
	ZoneID   string
	ZoneName string
}

func (z *HostedZone) ID() string              { return IDHostedZone }
func (z *HostedZone) Kind() Kind              { return KindHostedZone }
func (z *HostedZone) DependsOn() []Descriptor { return nil }

// Certificate is a DNS-validated ACM certificate pinned to CertificateRegion.
type Certificate struct {
	PrimaryDomain    string
	AlternativeNames []string
	ValidationRegion string
	Validation       Validation
	Zone             *HostedZone
}

func (c *Certificate) ID() string              { return IDCertificate }
func (c *Certificate) Kind() Kind              { return KindCertificate }
func (c *Certificate) DependsOn() []Descriptor { return []Descriptor{c.Zone} }

// ErrorResponse maps an origin status to a custom error page.
type ErrorResponse struct {
	HTTPStatus         int
	ResponseHTTPStatus int
	ResponsePagePath   string
	TTL                time.Duration
}

// Distribution is the CloudFront distribution in front of the bucket.
type Distribution struct {
	Origin            *Bucket
	Functions         []*EdgeFunction
	Certificate       *Certificate
	Aliases           []string
	DefaultRootObject string
	ViewerProtocol    ViewerProtocol
	MinimumTLS        string
	HTTPVersion       string
	AllowedMethods    string
	Compress          bool
	ErrorResponses    []ErrorResponse
}

func (d *Distribution) ID() string { return IDDistribution }
func (d *Distribution) Kind() Kind { return KindDistribution }
func (d *Distribution) DependsOn() []Descriptor {
	deps := []Descriptor{d.Origin}
	for _, fn := range d.Functions {
		deps = append(deps, fn)
	}
	return append(deps, d.Certificate)
}

// Function returns the attached function with the given role, or nil.
func (d *Distribution) Function(role FunctionRole) *EdgeFunction {
	for _, fn := range d.Functions {
		if fn.Role == role {
			return fn
		}
	}
	return nil
}

// AliasRecord is the apex A record aliasing the distribution.
type AliasRecord struct {
	RecordName string
	Target     *Distribution
	Zone       *HostedZone
}

func (a *AliasRecord) ID() string              { return IDAliasRecord }
func (a *AliasRecord) Kind() Kind              { return KindAliasRecord }
func (a *AliasRecord) DependsOn() []Descriptor { return []Descriptor{a.Target, a.Zone} }

// CnameRecord points the www name at the apex name. After orders it behind
// the alias record.
type CnameRecord struct {
	RecordName string
	Target     string
	Zone       *HostedZone
	After      *AliasRecord
}

func (c *CnameRecord) ID() string              { return IDCnameRecord }
func (c *CnameRecord) Kind() Kind              { return KindCnameRecord }
func (c *CnameRecord) DependsOn() []Descriptor { return []Descriptor{c.Zone, c.After} }
