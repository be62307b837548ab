package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/config"
	"github.com/theory-cloud/sitetheory/pkg/descriptor"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

// BucketNameOutputID is the id of the stack's only output.
const BucketNameOutputID = "SiteBucketName"

// SiteStackProps configures NewSiteStack. Config supplies the environment,
// namespace and description; Site is the graph to render.
type SiteStackProps struct {
	awscdk.StackProps

	Config config.Config
	Site   *descriptor.Site
}

// SiteStack is the deployment unit: one stack, one static site, one output.
type SiteStack struct {
	awscdk.Stack

	Site       *StaticSite
	BucketName awscdk.CfnOutput
}

// NewSiteStack creates the stack and renders the site into it. An empty id
// falls back to <namespace>-stack.
func NewSiteStack(scope constructs.Construct, id string, props *SiteStackProps) (out *SiteStack, err error) {
	if props == nil || props.Site == nil {
		return nil, sitetheory.NewError(sitetheory.ErrorCodeInternal, "site stack requires a site")
	}
	defer recoverJSII("create site stack", &err)

	cfg := props.Config
	if id == "" {
		id = naming.StackID(cfg.Namespace)
	}

	sprops := props.StackProps
	if sprops.Env == nil {
		sprops.Env = &awscdk.Environment{
			Account: jsii.String(cfg.Account),
			Region:  jsii.String(cfg.Region),
		}
	}
	if sprops.Description == nil && cfg.Description != "" {
		sprops.Description = jsii.String(cfg.Description)
	}

	stack := awscdk.NewStack(scope, jsii.String(id), &sprops)

	site, err := NewStaticSite(stack, naming.ConstructID(cfg.Namespace), props.Site)
	if err != nil {
		return nil, err
	}

	output := awscdk.NewCfnOutput(stack, jsii.String(BucketNameOutputID), &awscdk.CfnOutputProps{
		Value:       site.Bucket.BucketName(),
		Description: jsii.String("Name of the bucket holding the site content"),
	})

	return &SiteStack{Stack: stack, Site: site, BucketName: output}, nil
}
