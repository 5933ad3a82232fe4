// Package observe provides telemetry for authorization operations:
// structured JSON logging, OpenTelemetry metrics, and tracing.
//
// The Observer composes all three behind one constructor; each signal
// can be disabled independently and degrades to a noop. Log fields with
// credential-bearing keys are redacted before serialization.
package observe
