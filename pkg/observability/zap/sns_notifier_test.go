package zap

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

type fakeSNSClient struct {
	last *sns.PublishInput
	err  error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func TestSNSNotifier_ValidatesInputs(t *testing.T) {
	var n *snsNotifier
	if err := n.Notify(context.Background(), observability.LogEntry{}); err == nil {
		t.Fatal("expected error for nil notifier")
	}

	empty := NewSNSNotifier(&fakeSNSClient{}, "   ", SNSNotifierOptions{})
	if err := empty.Notify(context.Background(), observability.LogEntry{}); err == nil {
		t.Fatal("expected error for empty topic arn")
	}
}

func TestSNSNotifier_PublishesSanitizedPayload(t *testing.T) {
	t.Setenv("CDK_DEFAULT_ACCOUNT", "123456789012")
	t.Setenv("CDK_DEFAULT_REGION", "eu-west-1")

	client := &fakeSNSClient{}
	notifier := NewSNSNotifier(client, " arn:aws:sns:eu-west-1:123456789012:site-alerts ", SNSNotifierOptions{
		Subject: "synth\r\nfailed " + strings.Repeat("x", 200),
	})

	entry := observability.LogEntry{
		Level:   "error",
		Message: "hosted zone not found",
		Stack:   "blog-stack",
		Fields:  map[string]any{"payload": strings.Repeat("y", 300*1024)},
	}
	if err := notifier.Notify(context.Background(), entry); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got := *client.last.TopicArn; got != "arn:aws:sns:eu-west-1:123456789012:site-alerts" {
		t.Fatalf("expected trimmed topic arn, got %q", got)
	}
	subject := *client.last.Subject
	if strings.ContainsAny(subject, "\r\n") || len(subject) > maxSubjectLength {
		t.Fatalf("expected sanitized, truncated subject, got %q", subject)
	}
	if len(*client.last.Message) > maxMessageLength {
		t.Fatalf("expected message truncated, len=%d", len(*client.last.Message))
	}
}

func TestSNSNotifier_MasksAccountInEnvironment(t *testing.T) {
	t.Setenv("CDK_DEFAULT_ACCOUNT", "123456789012")

	client := &fakeSNSClient{}
	notifier := NewSNSNotifier(client, "arn:aws:sns:us-east-1:123456789012:topic", SNSNotifierOptions{})
	if err := notifier.Notify(context.Background(), observability.LogEntry{Level: "error", Message: "boom"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if *client.last.Subject != "sitetheory synthesis failed" {
		t.Fatalf("expected default subject, got %q", *client.last.Subject)
	}

	var payload struct {
		Env map[string]string `json:"env"`
	}
	if err := json.Unmarshal([]byte(*client.last.Message), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Env["cdk_default_account"] != "********9012" {
		t.Fatalf("expected masked account, got %q", payload.Env["cdk_default_account"])
	}
}

func TestSNSNotifier_PropagatesPublishError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("denied")}
	notifier := NewSNSNotifier(client, "arn:aws:sns:us-east-1:123456789012:topic", SNSNotifierOptions{})
	if err := notifier.Notify(context.Background(), observability.LogEntry{}); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestWithEnvironmentErrorNotifications_NoTopicIsNoOp(t *testing.T) {
	t.Setenv("SITE_ERROR_NOTIFICATIONS_TOPIC_ARN", "")
	t.Setenv("ERROR_NOTIFICATIONS_TOPIC_ARN", "")

	opts := &loggerOptions{}
	WithEnvironmentErrorNotifications(context.Background(), DefaultEnvironmentErrorNotifications())(opts)
	if opts.notifier != nil || opts.initErr != nil {
		t.Fatalf("expected no notifier and no error, got %#v / %v", opts.notifier, opts.initErr)
	}
}

func TestFirstEnvValue(t *testing.T) {
	t.Setenv("SITE_TEST_A", "")
	t.Setenv("SITE_TEST_B", "  second  ")
	if got := firstEnvValue("", "SITE_TEST_A", "SITE_TEST_B"); got != "second" {
		t.Fatalf("expected second, got %q", got)
	}
}
