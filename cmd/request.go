package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inercia/go-bedrock/pkg/llm"
	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

// requestFlags are the flags shared by invoke and stream
type requestFlags struct {
	model       string
	body        string
	bodyFile    string
	prompt      string
	system      string
	maxTokens   int
	temperature float64
	raw         bool
	accept      string
	contentType string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.model, "model", "m", "", "model id (defaults to the configured llm)")
	flags.StringVar(&f.body, "body", "", "raw request body")
	flags.StringVar(&f.bodyFile, "body-file", "", "file holding the raw request body, - for stdin")
	flags.StringVarP(&f.prompt, "prompt", "p", "", "prompt to wrap in a model specific body")
	flags.StringVar(&f.system, "system", "", "system prompt used with --prompt")
	flags.IntVar(&f.maxTokens, "max-tokens", defaultMaxTokens, "maximum tokens to generate with --prompt")
	flags.Float64Var(&f.temperature, "temperature", 0, "sampling temperature with --prompt (defaults to the configured one)")
	flags.BoolVar(&f.raw, "raw", false, "print the raw response instead of the extracted text")
	flags.StringVar(&f.accept, "accept", bedrock.DefaultAccept, "Accept header of the request")
	flags.StringVar(&f.contentType, "content-type", bedrock.DefaultContentType, "content type of the request body")

	cmd.MarkFlagsMutuallyExclusive("body", "body-file", "prompt")
	cmd.MarkFlagsOneRequired("body", "body-file", "prompt")
}

// modelID returns --model, or the configured model
func (f *requestFlags) modelID(cfg llm.Config) (string, error) {
	if f.model != "" {
		return f.model, nil
	}
	if cfg.Model != "" {
		return cfg.Model, nil
	}
	return "", fmt.Errorf("no model: use --model or set BIOMNI_LLM")
}

// requestBody returns the body to send, reading it or building it from --prompt
func (f *requestFlags) requestBody(cmd *cobra.Command, modelID string, cfg llm.Config) ([]byte, error) {
	switch {
	case f.body != "":
		return []byte(f.body), nil
	case f.bodyFile == "-":
		return io.ReadAll(cmd.InOrStdin())
	case f.bodyFile != "":
		return os.ReadFile(f.bodyFile)
	}

	temperature := cfg.Temperature
	if cmd.Flags().Changed("temperature") {
		temperature = f.temperature
	}
	return buildBody(modelID, promptRequest{
		System:      f.system,
		Prompt:      f.prompt,
		MaxTokens:   f.maxTokens,
		Temperature: &temperature,
	})
}

func (f *requestFlags) invokeOptions() []bedrock.InvokeOption {
	return []bedrock.InvokeOption{
		bedrock.WithAccept(f.accept),
		bedrock.WithContentType(f.contentType),
	}
}
