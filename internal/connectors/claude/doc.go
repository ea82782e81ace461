// Package claude verifies Anthropic API keys entered for the Claude provider.
package claude
