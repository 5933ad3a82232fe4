// Package secret expands environment references in configuration
// values, strictly: a referenced variable that is absent from the
// environment is an error, never a silent empty string. Credential
// material (client tokens, API keys) is the intended use, where an
// unnoticed empty expansion would turn into a confusing auth failure
// far from its cause.
package secret
