// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
//
// LoadDotEnv and ApplyEnv layer .env files and environment variables
// over the stored configuration.
package file
