package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var invokeFlags requestFlags

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Invoke a model and print the response",
	Example: `  bedrockctl invoke -m anthropic.claude-3-haiku-20240307-v1:0 -p "Say hello"
  bedrockctl invoke -m amazon.titan-text-express-v1 --body-file request.json --raw`,
	Args: cobra.NoArgs,
	RunE: runInvoke,
}

func init() {
	invokeFlags.register(invokeCmd)
}

func runInvoke(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	m, cfg, err := getManager(ctx)
	if err != nil {
		return err
	}
	modelID, err := invokeFlags.modelID(cfg)
	if err != nil {
		return err
	}
	body, err := invokeFlags.requestBody(cmd, modelID, cfg)
	if err != nil {
		return err
	}

	out, err := m.Invoke(ctx, modelID, body, invokeFlags.invokeOptions()...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if invokeFlags.raw {
		_, err = fmt.Fprintln(w, string(out.Body))
		return err
	}
	text, err := responseText(modelID, out.Body)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
