package publishers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "http2" {
		t.Fatalf("expected only http2 enabled, got %#v", enabled)
	}
}

func TestValidatePublisherConfigRejectsMissingHTTP(t *testing.T) {
	err := validatePublisherConfig(PublisherConfig{
		ID:   "h1",
		Type: TypeHTTP,
	})
	if err == nil {
		t.Fatalf("expected validation error for missing http block")
	}
}

func TestLoadRegistryJSONWithQueues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.json")
	raw := `{"publishers": [
  {"id": " topic ", "type": "SNS", "sns": {"topic_arn": "arn:aws:sns:eu-west-1:1:runs", "region": "eu-west-1"}},
  {"id": "pubsub", "type": "gcp_pubsub", "gcp_pubsub": {"project_id": "p", "topic": "runs"}},
  {"id": "queue", "type": "sqs", "sqs": {"uri": "https://q", "region": "eu-west-1", "access_key_id": "AK", "secret_access_key": "SK"}}
]}`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	topic, ok := reg.ByID("topic")
	if !ok || topic.Type != TypeSNS {
		t.Fatalf("expected sanitized sns entry, got %#v", topic)
	}
	queue, _ := reg.ByID("queue")
	if queue.SQS == nil || queue.SQS.AccessKeyID != "AK" {
		t.Fatalf("expected inline aws credentials, got %#v", queue.SQS)
	}
	if len(reg.Enabled()) != 3 {
		t.Fatalf("expected all entries enabled by default")
	}
}

func TestLoadRegistryYAMLInlineCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "publishers.yml")
	raw := `
publishers:
  - id: queue
    type: sqs
    sqs:
      uri: https://q
      region: us-east-1
      access_key_id: AK
      secret_access_key: SK
      endpoint: http://localhost:4566
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	queue, _ := reg.ByID("queue")
	if queue.SQS.Endpoint != "http://localhost:4566" || queue.SQS.SecretAccessKey != "SK" {
		t.Fatalf("inline fields not decoded: %#v", queue.SQS)
	}
}

func TestLoadRegistryMissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestValidatePublisherConfigQueues(t *testing.T) {
	cases := []PublisherConfig{
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "eu-west-1"}},
		{ID: "s", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "arn"}},
		{ID: "g", Type: TypeGCPPubSub},
		{ID: "g", Type: TypeGCPPubSub, GCPPubSub: &GCPPubSubPublisherConfig{ProjectID: "p"}},
		{ID: "q", Type: TypeSQS, SQS: &SQSPublisherConfig{QueueURL: "https://q"}},
	}
	for _, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("expected validation error for %#v", cfg)
		}
	}
}
