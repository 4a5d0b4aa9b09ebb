package bedrock

import (
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go/logging"
)

const (
	DefaultRegion         = "us-east-1"
	DefaultMaxRetries     = 5
	DefaultConnectTimeout = 60 * time.Second
	DefaultReadTimeout    = 300 * time.Second

	DefaultContentType = "application/json"
	DefaultAccept      = "application/json"
)

// Options configures a Manager. The zero value is usable: every field falls
// back to the environment or a default.
type Options struct {
	// Region defaults to AWS_REGION, then AWS_DEFAULT_REGION, then DefaultRegion
	Region string
	// Profile is the shared config profile. Defaults to AWS_PROFILE, or the
	// default credential chain when neither is set.
	Profile string

	// MaxRetries is the maximum number of attempts of the SDK's adaptive
	// retryer, including the first one
	MaxRetries     int
	ConnectTimeout time.Duration
	// ReadTimeout bounds the wait for a response once the request is sent
	ReadTimeout time.Duration

	// Endpoint overrides for the runtime and control-plane services
	RuntimeEndpoint string
	ControlEndpoint string

	// SkipIdentityCheck disables the best-effort STS GetCallerIdentity call
	// made at construction
	SkipIdentityCheck bool

	// Logger receives the manager and SDK logs. Defaults to a standard logger
	// on stderr.
	Logger logging.Logger

	// LoadOptions are passed to config.LoadDefaultConfig after the ones derived
	// from the fields above, e.g. config.WithCredentialsProvider.
	LoadOptions []func(*awsconfig.LoadOptions) error
}

// ResolveRegion returns explicit when set, otherwise AWS_REGION, then
// AWS_DEFAULT_REGION, then DefaultRegion
func ResolveRegion(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return DefaultRegion
}

// ResolveProfile returns explicit when set, otherwise AWS_PROFILE (possibly empty)
func ResolveProfile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return os.Getenv("AWS_PROFILE")
}

// Resolved returns a copy of o with the environment and defaults applied
func (o Options) Resolved() Options {
	o.Region = ResolveRegion(o.Region)
	o.Profile = ResolveProfile(o.Profile)
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewStandardLogger(os.Stderr)
	}
	return o
}

// InvokeOption customizes a single Invoke or InvokeStream call
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	accept      string
	contentType string
}

// WithAccept sets the Accept header of the request (default application/json)
func WithAccept(accept string) InvokeOption {
	return func(o *invokeOptions) { o.accept = accept }
}

// WithContentType sets the content type of the request body (default application/json)
func WithContentType(contentType string) InvokeOption {
	return func(o *invokeOptions) { o.contentType = contentType }
}

func newInvokeOptions(opts []InvokeOption) invokeOptions {
	o := invokeOptions{
		accept:      DefaultAccept,
		contentType: DefaultContentType,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
