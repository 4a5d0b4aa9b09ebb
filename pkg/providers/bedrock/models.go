package bedrock

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"

	"github.com/inercia/go-bedrock/pkg/llm"
)

// healthCheckTimeout bounds a single health check
const healthCheckTimeout = 10 * time.Second

// FoundationModels lists the foundation models available in the region,
// optionally restricted to one provider (e.g. "Anthropic")
func (m *Manager) FoundationModels(ctx context.Context, provider string) ([]types.FoundationModelSummary, error) {
	control, err := m.Control()
	if err != nil {
		return nil, err
	}

	input := &bedrock.ListFoundationModelsInput{}
	if provider != "" {
		input.ByProvider = aws.String(provider)
	}
	out, err := control.ListFoundationModels(ctx, input)
	if err != nil {
		return nil, m.controlError("ListFoundationModels", err)
	}
	return out.ModelSummaries, nil
}

// FoundationModel returns the details of one foundation model
func (m *Manager) FoundationModel(ctx context.Context, modelID string) (*types.FoundationModelDetails, error) {
	if modelID == "" {
		return nil, llm.NewClientError(llm.CodeInvalidRequest, "model ID is required", nil)
	}
	control, err := m.Control()
	if err != nil {
		return nil, err
	}

	out, err := control.GetFoundationModel(ctx, &bedrock.GetFoundationModelInput{
		ModelIdentifier: aws.String(modelID),
	})
	if err != nil {
		return nil, m.controlError("GetFoundationModel", err)
	}
	return out.ModelDetails, nil
}

// Remote returns information about the remote service. The health status is
// refreshed at most once every llm.DefaultHealthCheckInterval. A check cut
// short by ctx is returned but not cached.
func (m *Manager) Remote(ctx context.Context) llm.ClientRemoteInfo {
	m.healthMu.Lock()
	defer m.healthMu.Unlock()

	now := time.Now()
	needsRefresh := m.lastHealthCheck == nil ||
		now.Sub(*m.lastHealthCheck) >= llm.DefaultHealthCheckInterval

	if needsRefresh {
		err := m.performHealthCheck(ctx)
		healthy := err == nil
		if err != nil && ctx.Err() != nil {
			// the caller gave up: report it without caching a verdict on the service
			return llm.ClientRemoteInfo{
				Name:   "bedrock",
				Region: m.Region(),
				Status: &llm.ClientRemoteInfoStatus{
					Healthy:     &healthy,
					LastChecked: &now,
					LastError:   err,
				},
			}
		}
		m.lastHealthStatus = &healthy
		m.lastHealthCheck = &now
		m.lastHealthErr = err
	}

	return llm.ClientRemoteInfo{
		Name:   "bedrock",
		Region: m.Region(),
		Status: &llm.ClientRemoteInfoStatus{
			Healthy:     m.lastHealthStatus,
			LastChecked: m.lastHealthCheck,
			LastError:   m.lastHealthErr,
		},
	}
}

// performHealthCheck lists foundation models as a health check
func (m *Manager) performHealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	_, err := m.FoundationModels(ctx, "")
	return err
}
