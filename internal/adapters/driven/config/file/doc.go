// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML or YAML configuration, sections exposed as dotted keys
//   - PromptStore: editable prompt templates, reloaded on change
package file
