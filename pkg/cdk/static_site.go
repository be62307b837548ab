// Package cdk renders a descriptor.Site into AWS CDK constructs.
package cdk

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfrontorigins"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53targets"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/descriptor"
	"github.com/theory-cloud/sitetheory/pkg/logger"
)

// StaticSite holds the constructs rendered for one site.
type StaticSite struct {
	constructs.Construct

	Bucket          awss3.Bucket
	SecurityHeaders awscloudfront.Function
	// WwwRedirect and CnameRecord are nil when the site has no www name.
	WwwRedirect  awscloudfront.Function
	Zone         awsroute53.IHostedZone
	Certificate  awscertificatemanager.DnsValidatedCertificate
	Distribution awscloudfront.Distribution
	ARecord      awsroute53.ARecord
	CnameRecord  awsroute53.CnameRecord
}

// NewStaticSite renders site under a new construct named id. Constructs are
// created in the site's descriptor order.
func NewStaticSite(scope constructs.Construct, id string, site *descriptor.Site) (out *StaticSite, err error) {
	if scope == nil {
		return nil, sitetheory.NewError(sitetheory.ErrorCodeInternal, "scope is nil")
	}
	if site == nil {
		return nil, sitetheory.NewError(sitetheory.ErrorCodeInternal, "site is nil")
	}
	defer recoverJSII("render static site", &err)

	s := &StaticSite{Construct: constructs.NewConstruct(scope, jsii.String(id))}

	s.Bucket = newBucket(s.Construct, site.Bucket)

	if s.SecurityHeaders, err = newFunction(s.Construct, site.SecurityHeaders); err != nil {
		return nil, err
	}
	if site.WwwRedirect != nil {
		if s.WwwRedirect, err = newFunction(s.Construct, site.WwwRedirect); err != nil {
			return nil, err
		}
	}

	s.Zone = awsroute53.HostedZone_FromHostedZoneAttributes(s.Construct, jsii.String(site.Zone.ID()), &awsroute53.HostedZoneAttributes{
		HostedZoneId: jsii.String(site.Zone.ZoneID),
		ZoneName:     jsii.String(site.Zone.ZoneName),
	})

	s.Certificate = awscertificatemanager.NewDnsValidatedCertificate(s.Construct, jsii.String(site.Certificate.ID()), &awscertificatemanager.DnsValidatedCertificateProps{
		DomainName:              jsii.String(site.Certificate.PrimaryDomain),
		SubjectAlternativeNames: jsii.Strings(site.Certificate.AlternativeNames...),
		HostedZone:              s.Zone,
		Region:                  jsii.String(site.Certificate.ValidationRegion),
	})

	if s.Distribution, err = s.newDistribution(site.Distribution); err != nil {
		return nil, err
	}

	s.ARecord = awsroute53.NewARecord(s.Construct, jsii.String(site.AliasRecord.ID()), &awsroute53.ARecordProps{
		Zone:       s.Zone,
		RecordName: jsii.String(site.AliasRecord.RecordName),
		Target:     awsroute53.RecordTarget_FromAlias(awsroute53targets.NewCloudFrontTarget(s.Distribution)),
	})

	if site.CnameRecord != nil {
		s.CnameRecord = awsroute53.NewCnameRecord(s.Construct, jsii.String(site.CnameRecord.ID()), &awsroute53.CnameRecordProps{
			Zone:       s.Zone,
			RecordName: jsii.String(site.CnameRecord.RecordName),
			DomainName: jsii.String(site.CnameRecord.Target),
		})
		s.CnameRecord.Node().AddDependency(s.ARecord)
	}

	logger.Logger().Debug("static site rendered", map[string]any{
		"construct":   id,
		"domain_name": site.Domain,
	})
	return s, nil
}

func newBucket(scope constructs.Construct, b *descriptor.Bucket) awss3.Bucket {
	props := &awss3.BucketProps{
		Encryption:        awss3.BucketEncryption_S3_MANAGED,
		BlockPublicAccess: awss3.BlockPublicAccess_BLOCK_ALL(),
		RemovalPolicy:     awscdk.RemovalPolicy_RETAIN,
		AutoDeleteObjects: jsii.Bool(b.AutoDeleteObjects),
		EnforceSSL:        jsii.Bool(b.EnforceSSL),
	}
	if b.Name != "" {
		props.BucketName = jsii.String(b.Name)
	}
	return awss3.NewBucket(scope, jsii.String(b.ID()), props)
}

func newFunction(scope constructs.Construct, fn *descriptor.EdgeFunction) (awscloudfront.Function, error) {
	if fn.CodePath == "" {
		return nil, sitetheory.NewError(sitetheory.ErrorCodeConfigInvalid, fn.ID()+" has no code path")
	}
	return awscloudfront.NewFunction(scope, jsii.String(fn.ID()), &awscloudfront.FunctionProps{
		FunctionName: jsii.String(fn.Name),
		Comment:      jsii.String(fn.Comment),
		Runtime:      awscloudfront.FunctionRuntime_JS_2_0(),
		Code: awscloudfront.FunctionCode_FromFile(&awscloudfront.FileCodeOptions{
			FilePath: jsii.String(fn.CodePath),
		}),
	}), nil
}

func (s *StaticSite) newDistribution(d *descriptor.Distribution) (awscloudfront.Distribution, error) {
	associations := make([]*awscloudfront.FunctionAssociation, 0, len(d.Functions))
	for _, fn := range d.Functions {
		eventType, err := functionEventType(fn.EventType)
		if err != nil {
			return nil, err
		}
		rendered := s.SecurityHeaders
		if fn.Role == descriptor.RoleWwwRedirect {
			rendered = s.WwwRedirect
		}
		associations = append(associations, &awscloudfront.FunctionAssociation{
			Function:  rendered,
			EventType: eventType,
		})
	}

	viewer, err := viewerProtocolPolicy(d.ViewerProtocol)
	if err != nil {
		return nil, err
	}
	minTLS, err := securityPolicy(d.MinimumTLS)
	if err != nil {
		return nil, err
	}
	httpVersion, err := httpVersion(d.HTTPVersion)
	if err != nil {
		return nil, err
	}
	methods, err := allowedMethods(d.AllowedMethods)
	if err != nil {
		return nil, err
	}

	errorResponses := make([]*awscloudfront.ErrorResponse, 0, len(d.ErrorResponses))
	for _, er := range d.ErrorResponses {
		errorResponses = append(errorResponses, &awscloudfront.ErrorResponse{
			HttpStatus:         jsii.Number(er.HTTPStatus),
			ResponseHttpStatus: jsii.Number(er.ResponseHTTPStatus),
			ResponsePagePath:   jsii.String(er.ResponsePagePath),
			Ttl:                awscdk.Duration_Seconds(jsii.Number(er.TTL.Seconds())),
		})
	}

	return awscloudfront.NewDistribution(s.Construct, jsii.String(d.ID()), &awscloudfront.DistributionProps{
		DefaultBehavior: &awscloudfront.BehaviorOptions{
			Origin:               awscloudfrontorigins.S3BucketOrigin_WithOriginAccessControl(s.Bucket, nil),
			ViewerProtocolPolicy: viewer,
			AllowedMethods:       methods,
			Compress:             jsii.Bool(d.Compress),
			FunctionAssociations: &associations,
		},
		Certificate:            s.Certificate,
		DomainNames:            jsii.Strings(d.Aliases...),
		DefaultRootObject:      jsii.String(d.DefaultRootObject),
		MinimumProtocolVersion: minTLS,
		HttpVersion:            httpVersion,
		ErrorResponses:         &errorResponses,
	}), nil
}

// recoverJSII turns a panic raised by the jsii runtime into an error.
func recoverJSII(op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	cause, ok := r.(error)
	if !ok {
		cause = fmt.Errorf("%v", r)
	}
	*err = sitetheory.WrapError(sitetheory.ErrorCodeSynthFailed, op, cause)
}
