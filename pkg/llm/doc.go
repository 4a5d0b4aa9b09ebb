// Package llm provides the types shared by the model clients of this module.
//
// The main components include:
//
// - Config: application settings with defaults, config files (YAML or TOML) and
// environment variable overrides
// - Error: the error taxonomy returned by every client (client and authentication errors)
// - ClientRemoteInfo: cached remote health status
//
// Provider implementations are located in separate packages under /pkg/providers/
// to maintain clean separation of concerns and avoid import cycles.
package llm
