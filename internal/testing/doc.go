// Package testing provides test utilities, builders, and fixtures for unit and integration tests.
//
// This package centralizes common testing patterns to avoid duplication across test files:
//   - ContactBuilder and RequestBuilder: fluent builders for registrant contacts and pipeline requests
//   - PipelineFixture: the in-memory AWS fakes wired into real managers
//   - MockProvider and the pipeline collaborator mocks, built on testify/mock
//
// Usage:
//
//	req := testing.NewRequestBuilder().
//	    WithDomain("my-app.com").
//	    WithBucket("my-website-bucket").
//	    Build()
//
//	fixture := testing.NewPipelineFixture()
//	deps := fixture.Deps(builder, uploader)
package testing
