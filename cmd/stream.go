package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inercia/go-bedrock/pkg/providers/bedrock"
)

var streamFlags requestFlags

var streamCmd = &cobra.Command{
	Use:     "stream",
	Short:   "Invoke a model and print the response as it is generated",
	Example: `  bedrockctl stream -m anthropic.claude-3-haiku-20240307-v1:0 -p "Write a haiku about rivers"`,
	Args:    cobra.NoArgs,
	RunE:    runStream,
}

func init() {
	streamFlags.register(streamCmd)
}

func runStream(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	m, cfg, err := getManager(ctx)
	if err != nil {
		return err
	}
	modelID, err := streamFlags.modelID(cfg)
	if err != nil {
		return err
	}
	body, err := streamFlags.requestBody(cmd, modelID, cfg)
	if err != nil {
		return err
	}

	stream, err := m.InvokeStream(ctx, modelID, body, streamFlags.invokeOptions()...)
	if err != nil {
		return err
	}
	defer stream.Close()

	w := cmd.OutOrStdout()
	for event, err := range stream.Chunks() {
		if err != nil {
			return err
		}
		payload, ok := bedrock.ChunkBytes(event)
		if !ok {
			continue
		}
		if streamFlags.raw {
			fmt.Fprintln(w, string(payload))
			continue
		}
		text, err := chunkText(modelID, payload)
		if err != nil {
			return err
		}
		fmt.Fprint(w, text)
	}
	if !streamFlags.raw {
		fmt.Fprintln(w)
	}
	return nil
}
