// Package aws builds AWS SDK configuration for siteforge and maps SDK errors
// onto the errdefs taxonomy.
//
// CloudFront, Route 53 and Route 53 Domains are global services and ACM
// certificates used by CloudFront must live in us-east-1, so [Global] pins a
// configuration to that region while S3 keeps the configured region.
package aws
