package factory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inercia/go-bedrock/pkg/llm"
	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

// SourceBedrock is the only Config.Source served by this package. An empty
// source is accepted as well.
const SourceBedrock = "Bedrock"

// Factory creates Bedrock managers from a Config
type Factory struct{}

// New creates a new manager factory
func New() *Factory {
	return &Factory{}
}

// CreateManager builds a new Manager for the configuration, bypassing any cache.
// Options can adjust the derived bedrock.Options before construction.
func (f *Factory) CreateManager(ctx context.Context, cfg llm.Config, opts ...func(*bedrock.Options)) (*bedrock.Manager, error) {
	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}

	options := OptionsFromConfig(cfg)
	for _, opt := range opts {
		opt(&options)
	}
	return bedrock.NewManager(ctx, options)
}

// OptionsFromConfig maps the AWS fields of a Config to manager options
func OptionsFromConfig(cfg llm.Config) bedrock.Options {
	return bedrock.Options{
		Region:         cfg.AWSRegion,
		Profile:        cfg.AWSProfile,
		MaxRetries:     cfg.BedrockMaxRetries,
		ConnectTimeout: seconds(cfg.BedrockConnectTimeoutSeconds),
		ReadTimeout:    seconds(cfg.BedrockReadTimeoutSeconds),
	}
}

// ManagerFromConfig returns the manager cached in the default cache for the
// configuration, creating it on first use
func ManagerFromConfig(ctx context.Context, cfg llm.Config) (*bedrock.Manager, error) {
	if err := validateSource(cfg.Source); err != nil {
		return nil, err
	}
	return Default().Get(ctx, OptionsFromConfig(cfg))
}

func validateSource(source string) error {
	if source == "" || strings.EqualFold(source, SourceBedrock) {
		return nil
	}
	return llm.NewClientError(llm.CodeInvalidRequest, fmt.Sprintf("unsupported source: %s", source), nil)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
