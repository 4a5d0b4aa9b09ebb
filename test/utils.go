package test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/inercia/go-bedrock/pkg/factory"
	"github.com/inercia/go-bedrock/pkg/llm"
	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

const (
	// envRunIntegration enables the tests calling the real Bedrock service
	envRunIntegration = "RUN_BEDROCK_INTEGRATION"
	// envTestModel selects the model invoked by the tests
	envTestModel = "BEDROCK_TEST_MODEL"

	defaultTestModel = "anthropic.claude-3-haiku-20240307-v1:0"
)

// skipUnlessIntegration skips the test unless live Bedrock calls are enabled
func skipUnlessIntegration(t *testing.T) {
	t.Helper()

	if os.Getenv(envRunIntegration) != "1" {
		t.Skipf("Set %s=1 and AWS credentials to run against Bedrock", envRunIntegration)
	}
}

// createTestManager creates a manager using environment configuration
func createTestManager(t *testing.T) *bedrock.Manager {
	t.Helper()
	skipUnlessIntegration(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	m, err := factory.New().CreateManager(ctx, llm.NewConfig())
	require.NoError(t, err, "Failed to create Bedrock manager")
	require.NotNil(t, m, "Manager should not be nil")

	t.Logf("Using Bedrock in %s (profile %q)", m.Region(), m.Profile())
	return m
}

// testModel returns the model used by the tests
func testModel() string {
	if m := os.Getenv(envTestModel); m != "" {
		return m
	}
	return defaultTestModel
}

// claudeBody builds a minimal messages API body
func claudeBody(t *testing.T, prompt string, maxTokens int) []byte {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        maxTokens,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	})
	require.NoError(t, err)
	return body
}
