// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] and [Execute] functions run an operation under a [Policy]. Reads use
// [ReadPolicy] and calls with side effects use [MutationPolicy], which allows
// fewer attempts. Registrar REST calls and AWS API calls are wrapped this way.
package retry
