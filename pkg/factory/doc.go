// Package factory builds and caches Bedrock managers.
//
// A Manager is expensive to construct: it resolves credentials and may call
// STS. Cache keeps one Manager per distinct set of options so that callers
// sharing a configuration share the underlying clients. Default returns the
// process-wide cache, although tests and embedders can create their own.
//
// Example usage:
//
//	import (
//	    "github.com/inercia/go-bedrock/pkg/factory"
//	    "github.com/inercia/go-bedrock/pkg/llm"
//	)
//
//	cfg := llm.NewConfig()
//	manager, err := factory.ManagerFromConfig(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	out, err := manager.Invoke(ctx, "anthropic.claude-3-haiku-20240307-v1:0", body)
package factory
