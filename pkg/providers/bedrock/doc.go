// Package bedrock provides a client manager for AWS Bedrock.
//
// A Manager resolves AWS credentials once, with the SDK's default credential
// chain, and fails at construction when none are usable. It then creates the
// bedrock-runtime and bedrock (control-plane) clients on first use and reuses
// them for its whole lifetime.
//
// Request bodies are passed through as-is: the caller serializes the
// model-specific payload and decodes the response. Failures are returned as
// *llm.Error values whose messages name the model, region and, when relevant,
// the IAM permission involved.
//
// Key features:
//   - Region and profile resolution from options or AWS_* environment variables
//   - Adaptive retries, connect and read timeouts configured on the SDK
//   - Blocking (Invoke) and streaming (InvokeStream) invocation
//   - Foundation model listing and a cached health check
//
// Usage:
//
//	manager, err := bedrock.NewManager(ctx, bedrock.Options{Region: "us-east-1"})
//	if err != nil {
//	    return err
//	}
//	out, err := manager.Invoke(ctx, "anthropic.claude-3-haiku-20240307-v1:0", body)
//
// Streaming responses are ranged over:
//
//	stream, err := manager.InvokeStream(ctx, modelID, body)
//	if err != nil {
//	    return err
//	}
//	for event, err := range stream.Chunks() {
//	    if err != nil {
//	        return err
//	    }
//	    if payload, ok := bedrock.ChunkBytes(event); ok {
//	        // decode payload
//	    }
//	}
package bedrock
