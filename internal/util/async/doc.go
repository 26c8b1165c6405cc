// Package async provides utilities for bounded parallel execution with
// error collection.
//
// The [Map] function applies an operation to every item with a concurrency
// limit and returns results in input order. It is used for multi-domain
// availability searches and for uploading site bundles.
package async
