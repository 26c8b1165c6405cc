// Package pipeline turns a web application into a live HTTPS site.
//
// A run executes ten steps strictly in order: install, register, build,
// upload, request-certificate, validation-records, wait-certificate,
// create-distribution, dns-cutover and wait-distribution. Each step feeds the
// next; a failing step stops the run with an *Error naming it. Nothing is
// rolled back. Every remote write is idempotent, so re-running the same
// request converges.
package pipeline
