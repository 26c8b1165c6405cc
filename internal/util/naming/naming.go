package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Normalize lowercases a domain and strips surrounding whitespace and any
// trailing dot.
func Normalize(domain string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
}

// FQDN returns the normalized domain with a trailing dot.
func FQDN(domain string) string {
	return Normalize(domain) + "."
}

// SameDomain reports whether a and b name the same domain.
func SameDomain(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

func WWW(domain string) string {
	return "www." + Normalize(domain)
}

func HTTPSURL(domain string) string {
	return "https://" + Normalize(domain)
}

// WebsiteEndpoint is the S3 static website hostname of a bucket.
func WebsiteEndpoint(bucket, region string) string {
	return fmt.Sprintf("%s.s3-website-%s.amazonaws.com", bucket, region)
}

// OriginID names the CloudFront origin for a bucket.
func OriginID(bucket string) string {
	return "S3-Website-" + bucket
}

// IdempotencyToken is the ACM request token for a domain. ACM accepts at most
// 32 word characters.
func IdempotencyToken(domain string) string {
	return digest(domain)[:32]
}

// HostedZoneCallerReference is the deterministic Route53 caller reference for a
// domain's hosted zone.
func HostedZoneCallerReference(domain string) string {
	return "siteforge-zone-" + digest(domain)[:16]
}

// CallerReference returns a unique caller reference with the given prefix.
func CallerReference(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String())
}

// RunID identifies a single pipeline run in logs and metrics.
func RunID() string {
	return ulid.Make().String()
}

func digest(domain string) string {
	sum := sha256.Sum256([]byte(Normalize(domain)))
	return hex.EncodeToString(sum[:])
}
