// Package s3 prepares S3 buckets for static website hosting and uploads build
// output into them.
//
// A website bucket serves index.html at its website endpoint, which CloudFront
// uses as an http-only custom origin. Objects are readable through a public
// bucket policy rather than per-object ACLs.
package s3
