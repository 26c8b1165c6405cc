// Package naming provides consistent naming functions for AWS resources
// created for a site.
//
// Domain names are compared in normalized form (lower case, no trailing dot).
// Idempotency tokens and hosted-zone caller references are derived from the
// domain so that a re-run for the same domain is deduplicated by AWS, while
// distribution caller references are unique per call.
package naming
