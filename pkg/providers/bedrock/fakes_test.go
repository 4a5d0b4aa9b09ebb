package bedrock

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	runtimetypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/logging"
	"github.com/stretchr/testify/require"
)

// fakeRuntime records the requests it gets and replies with canned values
type fakeRuntime struct {
	mu          sync.Mutex
	invokeIn    []*bedrockruntime.InvokeModelInput
	streamIn    []*bedrockruntime.InvokeModelWithResponseStreamInput
	invokeOut   *bedrockruntime.InvokeModelOutput
	invokeErr   error
	streamErr   error
	streamCalls int
}

func (f *fakeRuntime) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invokeIn = append(f.invokeIn, params)
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	return f.invokeOut, nil
}

func (f *fakeRuntime) InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamIn = append(f.streamIn, params)
	f.streamCalls++
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return &bedrockruntime.InvokeModelWithResponseStreamOutput{ContentType: aws.String("application/json")}, nil
}

// fakeReader implements bedrockruntime.ResponseStreamReader over a channel
type fakeReader struct {
	events chan runtimetypes.ResponseStream
	err    error
	closed atomic.Int32
}

// newFakeReader returns a reader that has all events ready and then ends with err
func newFakeReader(err error, events ...runtimetypes.ResponseStream) *fakeReader {
	ch := make(chan runtimetypes.ResponseStream, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &fakeReader{events: ch, err: err}
}

func (r *fakeReader) Events() <-chan runtimetypes.ResponseStream { return r.events }
func (r *fakeReader) Close() error {
	r.closed.Add(1)
	return nil
}
func (r *fakeReader) Err() error { return r.err }

type fakeControl struct {
	mu        sync.Mutex
	listIn    []*bedrock.ListFoundationModelsInput
	listOut   *bedrock.ListFoundationModelsOutput
	listErr   error
	getOut    *bedrock.GetFoundationModelOutput
	getErr    error
	listCalls int
}

func (f *fakeControl) ListFoundationModels(ctx context.Context, params *bedrock.ListFoundationModelsInput, optFns ...func(*bedrock.Options)) (*bedrock.ListFoundationModelsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listIn = append(f.listIn, params)
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listOut == nil {
		return &bedrock.ListFoundationModelsOutput{}, nil
	}
	return f.listOut, nil
}

func (f *fakeControl) GetFoundationModel(ctx context.Context, params *bedrock.GetFoundationModelInput, optFns ...func(*bedrock.Options)) (*bedrock.GetFoundationModelOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeIdentity struct {
	out   *sts.GetCallerIdentityOutput
	err   error
	calls atomic.Int32
}

func (f *fakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

// testServices wires the fakes and counts the client constructions
type testServices struct {
	runtime  *fakeRuntime
	control  *fakeControl
	identity *fakeIdentity
	reader   *fakeReader

	runtimeBuilds atomic.Int32
	controlBuilds atomic.Int32
}

func newTestServices() *testServices {
	return &testServices{
		runtime: &fakeRuntime{},
		control: &fakeControl{},
		identity: &fakeIdentity{out: &sts.GetCallerIdentityOutput{
			Account: aws.String("123456789012"),
			Arn:     aws.String("arn:aws:iam::123456789012:user/test"),
		}},
		reader: newFakeReader(nil),
	}
}

func (ts *testServices) services() services {
	return services{
		runtime: func(aws.Config, Options) RuntimeAPI {
			ts.runtimeBuilds.Add(1)
			return ts.runtime
		},
		control: func(aws.Config, Options) ControlAPI {
			ts.controlBuilds.Add(1)
			return ts.control
		},
		identity: func(aws.Config) identityAPI {
			return ts.identity
		},
		stream: func(*bedrockruntime.InvokeModelWithResponseStreamOutput) bedrockruntime.ResponseStreamReader {
			if ts.reader == nil {
				return nil
			}
			return ts.reader
		},
	}
}

// isolateAWSEnv clears the AWS environment and points the shared config files
// to paths that do not exist
func isolateAWSEnv(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	for _, name := range []string{
		"AWS_REGION", "AWS_DEFAULT_REGION", "AWS_PROFILE", "AWS_DEFAULT_PROFILE",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN",
		"AWS_ROLE_ARN", "AWS_WEB_IDENTITY_TOKEN_FILE", "AWS_CONTAINER_CREDENTIALS_RELATIVE_URI",
		"AWS_CONTAINER_CREDENTIALS_FULL_URI",
	} {
		t.Setenv(name, "")
	}
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

// staticCredentials returns load options with fixed test credentials
func staticCredentials() []func(*awsconfig.LoadOptions) error {
	return []func(*awsconfig.LoadOptions) error{
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIDTEST", "SECRETTEST", "")),
	}
}

// newTestManager builds a Manager over the fakes with static credentials
func newTestManager(t *testing.T, ts *testServices, opts Options) *Manager {
	t.Helper()

	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	if opts.LoadOptions == nil {
		opts.LoadOptions = staticCredentials()
	}
	m, err := newManager(context.Background(), opts, ts.services())
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func chunk(payload string) runtimetypes.ResponseStream {
	return &runtimetypes.ResponseStreamMemberChunk{
		Value: runtimetypes.PayloadPart{Bytes: []byte(payload)},
	}
}
