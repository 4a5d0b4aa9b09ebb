package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/spf13/cobra"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models [model-id]",
	Short: "List the foundation models, or show one of them",
	Example: `  bedrockctl models --provider Anthropic
  bedrockctl models amazon.titan-text-express-v1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "only list models of this provider")
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, _, err := getManager(ctx)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(args) == 1 {
		details, err := m.FoundationModel(ctx, args[0])
		if err != nil {
			return err
		}
		printModelDetails(w, details)
		return nil
	}

	models, err := m.FoundationModels(ctx, modelsProvider)
	if err != nil {
		return err
	}
	printModels(w, models)
	return nil
}

const modelRowFormat = "%-55s %-12s %-9s %s"

func printModels(w io.Writer, models []types.FoundationModelSummary) {
	fmt.Fprintln(w, styled(w, headerStyle, fmt.Sprintf(modelRowFormat, "MODEL ID", "PROVIDER", "STREAMING", "NAME")))
	for _, model := range models {
		fmt.Fprintf(w, modelRowFormat+"\n",
			aws.ToString(model.ModelId),
			aws.ToString(model.ProviderName),
			yesNo(model.ResponseStreamingSupported),
			aws.ToString(model.ModelName))
	}
	fmt.Fprintln(w, styled(w, dimStyle, fmt.Sprintf("%d models", len(models))))
}

func printModelDetails(w io.Writer, details *types.FoundationModelDetails) {
	row := func(name, value string) {
		fmt.Fprintf(w, "%s %s\n", styled(w, headerStyle, fmt.Sprintf("%-12s", name+":")), value)
	}
	row("ID", aws.ToString(details.ModelId))
	row("Name", aws.ToString(details.ModelName))
	row("Provider", aws.ToString(details.ProviderName))
	row("ARN", aws.ToString(details.ModelArn))
	row("Streaming", yesNo(details.ResponseStreamingSupported))
	row("Input", modalities(details.InputModalities))
	row("Output", modalities(details.OutputModalities))
	if details.ModelLifecycle != nil {
		row("Lifecycle", string(details.ModelLifecycle.Status))
	}
}

func yesNo(b *bool) string {
	switch {
	case b == nil:
		return "-"
	case *b:
		return "yes"
	default:
		return "no"
	}
}

func modalities(ms []types.ModelModality) string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, string(m))
	}
	return strings.Join(names, ", ")
}
