package bedrock

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/logging"

	"github.com/inercia/go-bedrock/pkg/llm"
)

const credentialHelp = "Please configure credentials via:\n" +
	"  - IAM role (recommended for production)\n" +
	"  - AWS_PROFILE environment variable (for local development)\n" +
	"  - AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables\n" +
	"  - ~/.aws/credentials file"

// RuntimeAPI is the part of *bedrockruntime.Client used by the Manager
type RuntimeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// ControlAPI is the part of *bedrock.Client used by the Manager
type ControlAPI interface {
	ListFoundationModels(ctx context.Context, params *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error)
	GetFoundationModel(ctx context.Context, params *bedrock.GetFoundationModelInput, optFns ...func(*bedrock.Options)) (*bedrock.GetFoundationModelOutput, error)
}

type identityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// services builds the SDK clients used by a Manager
type services struct {
	runtime  func(aws.Config, Options) RuntimeAPI
	control  func(aws.Config, Options) ControlAPI
	identity func(aws.Config) identityAPI
	// stream extracts the event reader from a streaming response
	stream func(*bedrockruntime.InvokeModelWithResponseStreamOutput) bedrockruntime.ResponseStreamReader
}

func sdkServices() services {
	return services{
		runtime: func(cfg aws.Config, opts Options) RuntimeAPI {
			return bedrockruntime.NewFromConfig(cfg, func(o *bedrockruntime.Options) {
				if opts.RuntimeEndpoint != "" {
					o.BaseEndpoint = aws.String(opts.RuntimeEndpoint)
				}
			})
		},
		control: func(cfg aws.Config, opts Options) ControlAPI {
			return bedrock.NewFromConfig(cfg, func(o *bedrock.Options) {
				if opts.ControlEndpoint != "" {
					o.BaseEndpoint = aws.String(opts.ControlEndpoint)
				}
			})
		},
		identity: func(cfg aws.Config) identityAPI {
			return sts.NewFromConfig(cfg)
		},
		stream: func(out *bedrockruntime.InvokeModelWithResponseStreamOutput) bedrockruntime.ResponseStreamReader {
			if s := out.GetStream(); s != nil {
				return s
			}
			return nil
		},
	}
}

// Manager owns a resolved AWS credential session and the Bedrock service
// clients built from it. The runtime and control-plane clients are created on
// first use and reused afterwards. A Manager is safe for concurrent use.
type Manager struct {
	opts     Options
	cfg      aws.Config
	logger   logging.Logger
	services services

	mu      sync.Mutex
	runtime RuntimeAPI
	control ControlAPI

	// Health check caching
	healthMu         sync.Mutex
	lastHealthCheck  *time.Time
	lastHealthStatus *bool
	lastHealthErr    error
}

// NewManager resolves AWS credentials and returns a Manager for them.
//
// Credentials are looked up with the SDK default chain: the profile (when
// set), environment variables, shared credentials and config files, process
// and container credentials, then instance metadata. An *llm.Error of type
// llm.ErrorTypeAuthentication is returned when no usable credentials are found.
func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	return newManager(ctx, opts, sdkServices())
}

func newManager(ctx context.Context, opts Options, svc services) (*Manager, error) {
	opts = opts.Resolved()

	cfg, err := loadAWSConfig(ctx, opts)
	if err != nil {
		opts.Logger.Logf(logging.Warn, "%v", err)
		return nil, err
	}

	m := &Manager{
		opts:     opts,
		cfg:      cfg,
		logger:   opts.Logger,
		services: svc,
	}

	if err := m.validateCredentials(ctx); err != nil {
		m.logger.Logf(logging.Warn, "%v", err)
		return nil, err
	}
	return m, nil
}

// loadAWSConfig builds the credential session and network settings
func loadAWSConfig(ctx context.Context, opts Options) (aws.Config, error) {
	httpClient := awshttp.NewBuildableClient().
		WithDialerOptions(func(d *net.Dialer) {
			d.Timeout = opts.ConnectTimeout
		}).
		WithTransportOptions(func(tr *http.Transport) {
			tr.ResponseHeaderTimeout = opts.ReadTimeout
		})

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.AddWithMaxAttempts(retry.NewAdaptiveMode(), opts.MaxRetries)
		}),
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithLogger(opts.Logger),
	}
	if opts.Profile != "" {
		opts.Logger.Logf(logging.Debug, "creating AWS session with profile: %s", opts.Profile)
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	} else {
		opts.Logger.Logf(logging.Debug, "creating AWS session with default credential chain")
	}
	loadOpts = append(loadOpts, opts.LoadOptions...)

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, llm.NewAuthenticationError(llm.CodeAWSConfig,
			fmt.Sprintf("Failed to create AWS session: %v\n"+
				"Ensure you have valid AWS credentials configured via:\n"+
				"  - IAM role (for EC2/ECS/EKS/Lambda/SageMaker/etc.)\n"+
				"  - AWS_PROFILE environment variable\n"+
				"  - AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY environment variables\n"+
				"  - ~/.aws/credentials file", err),
			err)
	}
	return cfg, nil
}

// validateCredentials checks that the session yields credential material, and
// then confirms the identity with STS on a best-effort basis.
func (m *Manager) validateCredentials(ctx context.Context) error {
	if m.cfg.Credentials == nil {
		return llm.NewAuthenticationError(llm.CodeNoCredentials, "No AWS credentials found. "+credentialHelp, nil)
	}

	creds, err := m.cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return llm.NewAuthenticationError(llm.CodeNoCredentials,
			fmt.Sprintf("No AWS credentials found: %v\n%s", err, credentialHelp), err)
	}
	if !creds.HasKeys() {
		return llm.NewAuthenticationError(llm.CodeNoCredentials, "No AWS credentials found. "+credentialHelp, nil)
	}

	if m.opts.SkipIdentityCheck {
		return nil
	}

	// GetCallerIdentity may be denied while Bedrock calls still succeed
	identity, err := m.services.identity(m.cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		m.logger.Logf(logging.Warn, "could not verify AWS credentials with STS: %v", err)
		return nil
	}
	m.logger.Logf(logging.Debug, "AWS credentials validated. Account: %s, ARN: %s",
		aws.ToString(identity.Account), aws.ToString(identity.Arn))
	return nil
}

// Region returns the resolved AWS region
func (m *Manager) Region() string {
	return m.opts.Region
}

// Profile returns the shared config profile in use, or "" for the default chain
func (m *Manager) Profile() string {
	return m.opts.Profile
}

// AWSConfig returns a copy of the resolved AWS configuration
func (m *Manager) AWSConfig() aws.Config {
	return m.cfg.Copy()
}

// Runtime returns the bedrock-runtime client, creating it on first use
func (m *Manager) Runtime() (RuntimeAPI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.runtime != nil {
		return m.runtime, nil
	}
	if err := m.checkHandleSettings("bedrock-runtime", m.opts.RuntimeEndpoint); err != nil {
		return nil, err
	}
	m.runtime = m.services.runtime(m.cfg, m.opts)
	m.logger.Logf(logging.Debug, "created bedrock-runtime client in region: %s", m.opts.Region)
	return m.runtime, nil
}

// Control returns the bedrock control-plane client, creating it on first use
func (m *Manager) Control() (ControlAPI, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.control != nil {
		return m.control, nil
	}
	if err := m.checkHandleSettings("bedrock", m.opts.ControlEndpoint); err != nil {
		return nil, err
	}
	m.control = m.services.control(m.cfg, m.opts)
	m.logger.Logf(logging.Debug, "created bedrock client in region: %s", m.opts.Region)
	return m.control, nil
}

// checkHandleSettings validates what the SDK constructors would otherwise
// only reject at request time
func (m *Manager) checkHandleSettings(service, endpoint string) error {
	var reason string
	switch {
	case m.cfg.Region == "":
		reason = "no region configured"
	case endpoint != "":
		u, err := url.Parse(endpoint)
		if err != nil {
			reason = fmt.Sprintf("invalid endpoint %q: %v", endpoint, err)
		} else if u.Scheme == "" || u.Host == "" {
			reason = fmt.Sprintf("invalid endpoint %q: expected an absolute URL", endpoint)
		}
	}
	if reason == "" {
		return nil
	}
	err := llm.NewClientError(llm.CodeClientSetup,
		fmt.Sprintf("Failed to create %s client: %s\nRegion: %s\n"+
			"Ensure the AWS Bedrock service is available in your region.", service, reason, m.cfg.Region),
		nil)
	m.logger.Logf(logging.Warn, "%s", err.Message)
	return err
}
