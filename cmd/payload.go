package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
)

// anthropicVersion is required by Claude models using the messages API
const anthropicVersion = "bedrock-2023-05-31"

const defaultMaxTokens = 1000

// family is the request/response layout used by a model
type family int

const (
	familyClaude family = iota
	familyClaudeLegacy
	familyTitan
	familyLlama
)

// modelFamily guesses the payload layout from the model id. Unknown models use
// the Claude messages layout.
func modelFamily(modelID string) family {
	id := strings.ToLower(modelID)
	switch {
	case strings.Contains(id, "claude-v2") || strings.Contains(id, "claude-instant"):
		return familyClaudeLegacy
	case strings.Contains(id, "claude") || strings.Contains(id, "anthropic"):
		return familyClaude
	case strings.Contains(id, "titan") || strings.Contains(id, "amazon"):
		return familyTitan
	case strings.Contains(id, "llama") || strings.Contains(id, "meta"):
		return familyLlama
	default:
		return familyClaude
	}
}

// promptRequest is a single-turn prompt turned into a model specific body
type promptRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// buildBody encodes a prompt in the layout expected by modelID
func buildBody(modelID string, req promptRequest) ([]byte, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty")
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = defaultMaxTokens
	}

	var body map[string]any
	switch modelFamily(modelID) {
	case familyClaudeLegacy:
		var prompt strings.Builder
		if req.System != "" {
			prompt.WriteString(req.System + "\n\n")
		}
		fmt.Fprintf(&prompt, "\n\nHuman: %s\n\nAssistant:", req.Prompt)
		body = map[string]any{
			"prompt":               prompt.String(),
			"max_tokens_to_sample": req.MaxTokens,
		}
		if req.Temperature != nil {
			body["temperature"] = *req.Temperature
		}

	case familyTitan:
		var prompt strings.Builder
		if req.System != "" {
			prompt.WriteString(req.System + "\n\n")
		}
		fmt.Fprintf(&prompt, "User: %s\n", req.Prompt)
		config := map[string]any{"maxTokenCount": req.MaxTokens}
		if req.Temperature != nil {
			config["temperature"] = *req.Temperature
		}
		body = map[string]any{
			"inputText":            prompt.String(),
			"textGenerationConfig": config,
		}

	case familyLlama:
		var prompt strings.Builder
		prompt.WriteString("<s>[INST] ")
		if req.System != "" {
			fmt.Fprintf(&prompt, "<<SYS>>\n%s\n<</SYS>>\n\n", req.System)
		}
		fmt.Fprintf(&prompt, "%s [/INST]", req.Prompt)
		body = map[string]any{
			"prompt":      prompt.String(),
			"max_gen_len": req.MaxTokens,
		}
		if req.Temperature != nil {
			body["temperature"] = *req.Temperature
		}

	default:
		body = map[string]any{
			"anthropic_version": anthropicVersion,
			"max_tokens":        req.MaxTokens,
			"messages": []map[string]any{
				{"role": "user", "content": req.Prompt},
			},
		}
		if req.System != "" {
			body["system"] = req.System
		}
		if req.Temperature != nil {
			body["temperature"] = *req.Temperature
		}
	}

	return json.Marshal(body)
}

// responseText extracts the generated text from a complete response body
func responseText(modelID string, body []byte) (string, error) {
	var resp map[string]any
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	switch modelFamily(modelID) {
	case familyTitan:
		results, _ := resp["results"].([]any)
		if len(results) == 0 {
			return "", nil
		}
		result, _ := results[0].(map[string]any)
		text, _ := result["outputText"].(string)
		return text, nil

	case familyLlama:
		text, _ := resp["generation"].(string)
		return text, nil

	default:
		if completion, ok := resp["completion"].(string); ok {
			return completion, nil
		}
		var text strings.Builder
		content, _ := resp["content"].([]any)
		for _, item := range content {
			block, ok := item.(map[string]any)
			if !ok || block["type"] != "text" {
				continue
			}
			s, _ := block["text"].(string)
			text.WriteString(s)
		}
		return text.String(), nil
	}
}

// chunkText extracts the text delta carried by a streamed chunk, if any
func chunkText(modelID string, chunk []byte) (string, error) {
	var event map[string]any
	if err := json.Unmarshal(chunk, &event); err != nil {
		return "", fmt.Errorf("decoding chunk: %w", err)
	}

	switch modelFamily(modelID) {
	case familyTitan:
		text, _ := event["outputText"].(string)
		return text, nil

	case familyLlama:
		text, _ := event["generation"].(string)
		return text, nil

	default:
		if completion, ok := event["completion"].(string); ok {
			return completion, nil
		}
		if delta, ok := event["delta"].(map[string]any); ok {
			text, _ := delta["text"].(string)
			return text, nil
		}
		return "", nil
	}
}
