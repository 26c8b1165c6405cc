// Package config loads siteforge settings.
//
// Settings are resolved in layers: an optional YAML file (siteforge.yaml in
// the working directory unless a path is given), then environment variables,
// then secrets stored in the OS keyring under the "siteforge" service, then
// defaults. [Settings.Validate] rejects missing or placeholder credentials for
// the selected domain provider.
//
// Timeouts and retry limits come from SITEFORGE_* environment variables; see
// [LoadTimeouts].
package config
