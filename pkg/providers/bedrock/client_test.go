package bedrock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inercia/go-bedrock/pkg/llm"
)

func TestResolveRegion(t *testing.T) {
	tests := []struct {
		name          string
		explicit      string
		region        string
		defaultRegion string
		want          string
	}{
		{
			name:          "explicit wins over both env vars",
			explicit:      "ap-southeast-1",
			region:        "us-west-2",
			defaultRegion: "eu-west-1",
			want:          "ap-southeast-1",
		},
		{
			name:          "AWS_REGION wins over AWS_DEFAULT_REGION",
			region:        "us-west-2",
			defaultRegion: "eu-west-1",
			want:          "us-west-2",
		},
		{
			name:          "AWS_DEFAULT_REGION alone",
			defaultRegion: "eu-west-1",
			want:          "eu-west-1",
		},
		{
			name: "default region",
			want: "us-east-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("AWS_REGION", tt.region)
			t.Setenv("AWS_DEFAULT_REGION", tt.defaultRegion)

			assert.Equal(t, tt.want, ResolveRegion(tt.explicit))
		})
	}
}

func TestNewManager(t *testing.T) {
	t.Run("default region", func(t *testing.T) {
		isolateAWSEnv(t)

		m := newTestManager(t, newTestServices(), Options{})
		assert.Equal(t, "us-east-1", m.Region())
		assert.Equal(t, "us-east-1", m.AWSConfig().Region)
		assert.Empty(t, m.Profile())
	})

	t.Run("region from environment", func(t *testing.T) {
		isolateAWSEnv(t)
		t.Setenv("AWS_REGION", "us-west-2")

		m := newTestManager(t, newTestServices(), Options{})
		assert.Equal(t, "us-west-2", m.Region())
	})

	t.Run("region from AWS_DEFAULT_REGION", func(t *testing.T) {
		isolateAWSEnv(t)
		t.Setenv("AWS_DEFAULT_REGION", "eu-west-1")

		m := newTestManager(t, newTestServices(), Options{})
		assert.Equal(t, "eu-west-1", m.Region())
	})

	t.Run("explicit region", func(t *testing.T) {
		isolateAWSEnv(t)
		t.Setenv("AWS_REGION", "us-west-2")

		m := newTestManager(t, newTestServices(), Options{Region: "ap-southeast-1"})
		assert.Equal(t, "ap-southeast-1", m.Region())
	})

	t.Run("retry ceiling is applied to the SDK retryer", func(t *testing.T) {
		isolateAWSEnv(t)

		m := newTestManager(t, newTestServices(), Options{MaxRetries: 3})
		require.NotNil(t, m.AWSConfig().Retryer)
		assert.Equal(t, 3, m.AWSConfig().Retryer().MaxAttempts())
	})

	t.Run("default retry ceiling", func(t *testing.T) {
		isolateAWSEnv(t)

		m := newTestManager(t, newTestServices(), Options{})
		assert.Equal(t, DefaultMaxRetries, m.AWSConfig().Retryer().MaxAttempts())
	})
}

func TestNewManagerProfiles(t *testing.T) {
	writeProfile := func(t *testing.T, profile string) {
		t.Helper()
		dir := t.TempDir()
		credsFile := filepath.Join(dir, "credentials")
		configFile := filepath.Join(dir, "config")
		require.NoError(t, os.WriteFile(credsFile, []byte(fmt.Sprintf(
			"[%s]\naws_access_key_id = AKIDPROFILE\naws_secret_access_key = SECRETPROFILE\n", profile)), 0o600))
		require.NoError(t, os.WriteFile(configFile, []byte(fmt.Sprintf(
			"[profile %s]\nregion = eu-central-1\n", profile)), 0o600))
		t.Setenv("AWS_SHARED_CREDENTIALS_FILE", credsFile)
		t.Setenv("AWS_CONFIG_FILE", configFile)
	}

	t.Run("profile from environment", func(t *testing.T) {
		isolateAWSEnv(t)
		writeProfile(t, "test-profile")
		t.Setenv("AWS_PROFILE", "test-profile")

		m, err := newManager(context.Background(), Options{Logger: logging.Nop{}}, newTestServices().services())
		require.NoError(t, err)
		assert.Equal(t, "test-profile", m.Profile())

		creds, err := m.AWSConfig().Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKIDPROFILE", creds.AccessKeyID)
	})

	t.Run("explicit profile", func(t *testing.T) {
		isolateAWSEnv(t)
		writeProfile(t, "my-profile")

		m, err := newManager(context.Background(), Options{Profile: "my-profile", Logger: logging.Nop{}}, newTestServices().services())
		require.NoError(t, err)
		assert.Equal(t, "my-profile", m.Profile())
		// the explicit region default still wins over the profile region
		assert.Equal(t, "us-east-1", m.Region())
	})

	t.Run("missing profile", func(t *testing.T) {
		isolateAWSEnv(t)

		m, err := newManager(context.Background(), Options{Profile: "does-not-exist", Logger: logging.Nop{}}, newTestServices().services())
		require.Error(t, err)
		assert.Nil(t, m)
		assert.True(t, llm.IsAuthenticationError(err))
		assert.Equal(t, llm.CodeAWSConfig, llm.ErrorCode(err))
		assert.Contains(t, err.Error(), "Failed to create AWS session")
	})
}

func TestCredentialValidation(t *testing.T) {
	tests := []struct {
		name     string
		provider aws.CredentialsProvider
	}{
		{
			name: "empty credentials",
			provider: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{}, nil
			}),
		},
		{
			name: "provider error",
			provider: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{}, errors.New("no valid providers in chain")
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateAWSEnv(t)
			ts := newTestServices()

			m, err := newManager(context.Background(), Options{
				Logger:      logging.Nop{},
				LoadOptions: []func(*awsconfig.LoadOptions) error{awsconfig.WithCredentialsProvider(tt.provider)},
			}, ts.services())

			require.Error(t, err)
			assert.Nil(t, m, "no manager must be returned when credentials are missing")
			assert.True(t, llm.IsAuthenticationError(err))
			assert.Equal(t, llm.CodeNoCredentials, llm.ErrorCode(err))
			assert.Contains(t, err.Error(), "No AWS credentials found")
			assert.Contains(t, err.Error(), "IAM role")
			assert.Zero(t, ts.identity.calls.Load(), "identity must not be checked without credentials")
		})
	}
}

func TestIdentityCheck(t *testing.T) {
	captureLogs := func() (logging.Logger, func() []string) {
		var mu sync.Mutex
		var lines []string
		logger := logging.LoggerFunc(func(classification logging.Classification, format string, v ...interface{}) {
			mu.Lock()
			defer mu.Unlock()
			lines = append(lines, string(classification)+" "+fmt.Sprintf(format, v...))
		})
		return logger, func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), lines...)
		}
	}

	t.Run("success is logged", func(t *testing.T) {
		isolateAWSEnv(t)
		ts := newTestServices()
		logger, lines := captureLogs()

		newTestManager(t, ts, Options{Logger: logger})
		assert.EqualValues(t, 1, ts.identity.calls.Load())
		assert.Contains(t, fmt.Sprint(lines()), "123456789012")
	})

	t.Run("failure does not fail construction", func(t *testing.T) {
		isolateAWSEnv(t)
		ts := newTestServices()
		ts.identity.err = errors.New("AccessDenied: not authorized to perform sts:GetCallerIdentity")
		logger, lines := captureLogs()

		m := newTestManager(t, ts, Options{Logger: logger})
		assert.NotNil(t, m)
		assert.Contains(t, fmt.Sprint(lines()), "could not verify AWS credentials with STS")
	})

	t.Run("skipped on request", func(t *testing.T) {
		isolateAWSEnv(t)
		ts := newTestServices()

		newTestManager(t, ts, Options{SkipIdentityCheck: true})
		assert.Zero(t, ts.identity.calls.Load())
	})
}

func TestHandlesAreMemoized(t *testing.T) {
	isolateAWSEnv(t)
	ts := newTestServices()
	m := newTestManager(t, ts, Options{})

	assert.Zero(t, ts.runtimeBuilds.Load(), "runtime client must be created lazily")
	assert.Zero(t, ts.controlBuilds.Load(), "control client must be created lazily")

	r1, err := m.Runtime()
	require.NoError(t, err)
	r2, err := m.Runtime()
	require.NoError(t, err)
	assert.Same(t, r1, r2)
	assert.EqualValues(t, 1, ts.runtimeBuilds.Load())

	c1, err := m.Control()
	require.NoError(t, err)
	c2, err := m.Control()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.EqualValues(t, 1, ts.controlBuilds.Load())
}

func TestHandlesConcurrentFirstUse(t *testing.T) {
	isolateAWSEnv(t)
	ts := newTestServices()
	m := newTestManager(t, ts, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Runtime()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, ts.runtimeBuilds.Load())
}

func TestHandleSetupFailure(t *testing.T) {
	isolateAWSEnv(t)
	ts := newTestServices()
	m := newTestManager(t, ts, Options{
		Region:          "eu-west-3",
		RuntimeEndpoint: "not a url",
		ControlEndpoint: "://bad",
	})

	_, err := m.Runtime()
	require.Error(t, err)
	assert.True(t, llm.IsClientError(err))
	assert.Equal(t, llm.CodeClientSetup, llm.ErrorCode(err))
	assert.Contains(t, err.Error(), "bedrock-runtime")
	assert.Contains(t, err.Error(), "eu-west-3")

	_, err = m.Control()
	require.Error(t, err)
	assert.Equal(t, llm.CodeClientSetup, llm.ErrorCode(err))
	assert.Contains(t, err.Error(), "Failed to create bedrock client")

	assert.Zero(t, ts.runtimeBuilds.Load())
	assert.Zero(t, ts.controlBuilds.Load())
}

func TestSDKServices(t *testing.T) {
	isolateAWSEnv(t)

	m, err := NewManager(context.Background(), Options{
		Region:            "us-west-2",
		RuntimeEndpoint:   "https://bedrock-runtime.custom.amazonaws.com",
		SkipIdentityCheck: true,
		ConnectTimeout:    5 * time.Second,
		Logger:            logging.Nop{},
		LoadOptions:       staticCredentials(),
	})
	require.NoError(t, err)

	runtime, err := m.Runtime()
	require.NoError(t, err)
	assert.NotNil(t, runtime)

	control, err := m.Control()
	require.NoError(t, err)
	assert.NotNil(t, control)
}
