package zap

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

const (
	maxSubjectLength = 100
	maxMessageLength = 256 * 1024
)

type snsAPI interface {
	Publish(
		ctx context.Context,
		params *sns.PublishInput,
		optFns ...func(*sns.Options),
	) (*sns.PublishOutput, error)
}

type SNSNotifierOptions struct {
	Subject string
}

type snsNotifier struct {
	client   snsAPI
	topicARN string
	subject  string
}

var _ observability.ErrorNotifier = (*snsNotifier)(nil)

func NewSNSNotifier(client snsAPI, topicARN string, opts SNSNotifierOptions) observability.ErrorNotifier {
	return &snsNotifier{
		client:   client,
		topicARN: strings.TrimSpace(topicARN),
		subject:  strings.TrimSpace(opts.Subject),
	}
}

func (n *snsNotifier) Notify(ctx context.Context, entry observability.LogEntry) error {
	if n == nil || n.client == nil {
		return errors.New("observability/zap: sns notifier is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if n.topicARN == "" {
		return errors.New("observability/zap: sns topic arn is empty")
	}

	payload := map[string]any{
		"entry": entry,
		"env": map[string]any{
			"cdk_default_region":  os.Getenv("CDK_DEFAULT_REGION"),
			"cdk_default_account": sanitization.SanitizeFieldValue("account", os.Getenv("CDK_DEFAULT_ACCOUNT")),
			"ci_job_url":          os.Getenv("CI_JOB_URL"),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	subject := n.subject
	if subject == "" {
		subject = "sitetheory synthesis failed"
	}
	subject = sanitization.SanitizeLogString(subject)
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength]
	}

	message := string(body)
	if len(message) > maxMessageLength {
		message = message[:maxMessageLength]
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
