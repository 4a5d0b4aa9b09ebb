// Package cmd implements the bedrockctl CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/aws/smithy-go/logging"
	"github.com/spf13/cobra"

	"github.com/inercia/go-bedrock/pkg/factory"
	"github.com/inercia/go-bedrock/pkg/llm"
	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

var (
	cfgFile    string
	region     string
	profile    string
	maxRetries int
	endpoint   string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:           "bedrockctl",
	Short:         "Invoke AWS Bedrock models from the command line",
	Long:          "bedrockctl resolves AWS credentials the same way the library does and invokes Bedrock models, blocking or streaming.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (yaml or toml)")
	rootCmd.PersistentFlags().StringVar(&region, "region", "", "AWS region (overrides the config and AWS_REGION)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "AWS shared config profile")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", 0, "maximum attempts of the adaptive retryer")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Bedrock runtime endpoint override")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "disable SDK and manager logs")

	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(configCmd)
}

// SetVersionInfo sets the version and commit for display.
func SetVersionInfo(version, commit string) {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("bedrockctl %s (commit: %s)\n", version, commit))
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, styled(os.Stderr, errorStyle, "Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

// loadConfig reads --config when given, otherwise defaults plus the environment
func loadConfig() (llm.Config, error) {
	if cfgFile == "" {
		return llm.NewConfig(), nil
	}
	return llm.LoadConfig(cfgFile)
}

// managerOptions derives the manager options from the config and the flags
func managerOptions(cfg llm.Config) bedrock.Options {
	opts := factory.OptionsFromConfig(cfg)
	if region != "" {
		opts.Region = region
	}
	if profile != "" {
		opts.Profile = profile
	}
	if maxRetries > 0 {
		opts.MaxRetries = maxRetries
	}
	if endpoint != "" {
		opts.RuntimeEndpoint = endpoint
	}
	if quiet {
		opts.Logger = logging.Nop{}
	}
	return opts
}

// getManager returns the shared manager for the current flags
func getManager(ctx context.Context) (*bedrock.Manager, llm.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	m, err := factory.GetManager(ctx, managerOptions(cfg))
	return m, cfg, err
}
