package cdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/descriptor"
)

func functionEventType(t descriptor.EventType) (awscloudfront.FunctionEventType, error) {
	switch t {
	case descriptor.EventViewerRequest:
		return awscloudfront.FunctionEventType_VIEWER_REQUEST, nil
	case descriptor.EventViewerResponse:
		return awscloudfront.FunctionEventType_VIEWER_RESPONSE, nil
	}
	return "", unsupported("function event type", string(t))
}

func viewerProtocolPolicy(p descriptor.ViewerProtocol) (awscloudfront.ViewerProtocolPolicy, error) {
	if p == descriptor.RedirectToHTTPS {
		return awscloudfront.ViewerProtocolPolicy_REDIRECT_TO_HTTPS, nil
	}
	return "", unsupported("viewer protocol policy", string(p))
}

func securityPolicy(v string) (awscloudfront.SecurityPolicyProtocol, error) {
	if v == descriptor.MinimumTLS {
		return awscloudfront.SecurityPolicyProtocol_TLS_V1_2_2021, nil
	}
	return "", unsupported("minimum TLS version", v)
}

func httpVersion(v string) (awscloudfront.HttpVersion, error) {
	if v == descriptor.HTTPVersion {
		return awscloudfront.HttpVersion_HTTP2_AND_3, nil
	}
	return "", unsupported("HTTP version", v)
}

func allowedMethods(v string) (awscloudfront.AllowedMethods, error) {
	if v == descriptor.AllowedMethods {
		return awscloudfront.AllowedMethods_ALLOW_GET_HEAD_OPTIONS(), nil
	}
	return nil, unsupported("allowed methods", v)
}

func unsupported(what, value string) error {
	return sitetheory.NewError(sitetheory.ErrorCodeInternal, "unsupported "+what+" "+value)
}
