package s3

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/imamik/siteforge/internal/errdefs"
	awsplatform "github.com/imamik/siteforge/internal/platform/aws"
	"github.com/imamik/siteforge/internal/util/async"
	"github.com/imamik/siteforge/internal/util/retry"
)

// Cache-Control values.
const (
	CacheNoCache   = "no-cache"
	CacheImmutable = "public, max-age=31536000, immutable"
	CacheDefault   = "public, max-age=3600"
)

var contentTypes = map[string]string{
	".html":        "text/html",
	".htm":         "text/html",
	".css":         "text/css",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".json":        "application/json",
	".map":         "application/json",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".svg":         "image/svg+xml",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".ttf":         "font/ttf",
	".eot":         "application/vnd.ms-fontobject",
	".xml":         "application/xml",
	".txt":         "text/plain",
	".webmanifest": "application/manifest+json",
}

// Bundlers put a content hash of at least eight characters between the name
// and the extension, e.g. main.3f2a9c1b.js or index-BxK29aQf.css.
var hashedName = regexp.MustCompile(`[.-]([0-9A-Za-z_]{8,})\.[0-9a-z]+$`)

// UploadOptions tunes UploadDirectory.
type UploadOptions struct {
	// Prefix is prepended to every key.
	Prefix string
	// Prune deletes keys under Prefix that are not part of the upload.
	Prune bool
}

// UploadResult summarizes an upload.
type UploadResult struct {
	Files   int
	Bytes   int64
	Deleted int
}

type localFile struct {
	path string
	key  string
}

// UploadDirectory uploads every regular file below dir, keyed by its slash
// separated relative path. Uploads run concurrently; the first failures are
// joined into the returned error.
func (c *Client) UploadDirectory(ctx context.Context, bucket, dir string, opts UploadOptions) (UploadResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to read upload directory: %w", err)
	}
	if !info.IsDir() {
		return UploadResult{}, errdefs.Newf(errdefs.KindValidation, "upload", "%s is not a directory", dir)
	}

	prefix := normalizePrefix(opts.Prefix)
	var files []localFile
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, localFile{path: p, key: prefix + filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	if len(files) == 0 {
		return UploadResult{}, errdefs.Newf(errdefs.KindValidation, "upload", "%s contains no files", dir)
	}

	c.log.Info("uploading files", "bucket", bucket, "files", len(files), "prefix", prefix)
	results := async.Map(ctx, files, c.concurrency, func(ctx context.Context, f localFile) (int64, error) {
		return c.uploadFile(ctx, bucket, f)
	})
	if err := async.Errors(results, func(i int) string { return files[i].key }); err != nil {
		return UploadResult{}, fmt.Errorf("failed to upload to bucket %s: %w", bucket, err)
	}

	res := UploadResult{Files: len(files)}
	for _, r := range results {
		res.Bytes += r.Value
	}

	if opts.Prune {
		deleted, err := c.prune(ctx, bucket, prefix, files)
		if err != nil {
			return res, err
		}
		res.Deleted = deleted
	}

	c.log.Info("upload complete", "bucket", bucket, "files", res.Files, "bytes", res.Bytes, "deleted", res.Deleted)
	return res, nil
}

func (c *Client) uploadFile(ctx context.Context, bucket string, f localFile) (int64, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, err
	}
	contentType := ContentType(f.path, data)

	// Object writes are idempotent, so they get the read policy's attempts.
	err = retry.Execute(ctx, c.read, func(ctx context.Context) error {
		_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(bucket),
			Key:           aws.String(f.key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String(contentType),
			CacheControl:  aws.String(CacheControl(f.key)),
		})
		return awsplatform.Classify("put object", err)
	}, nil)
	if err != nil {
		return 0, err
	}
	c.log.V(1).Info("uploaded", "key", f.key, "type", contentType, "bytes", len(data))
	return int64(len(data)), nil
}

func (c *Client) prune(ctx context.Context, bucket, prefix string, files []localFile) (int, error) {
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		keep[f.key] = struct{}{}
	}

	existing, err := c.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return 0, err
	}
	var stale []string
	for _, k := range existing {
		if _, ok := keep[k]; !ok {
			stale = append(stale, k)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := c.DeleteObjects(ctx, bucket, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}

// ContentType picks a content type from the file extension, falling back to
// sniffing the content.
func ContentType(name string, data []byte) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return mimetype.Detect(data).String()
}

// CacheControl returns the Cache-Control header for an object key. HTML is
// always revalidated so a deploy is visible at once; content-hashed assets
// never change and are cached for a year.
func CacheControl(key string) string {
	base := path.Base(key)
	switch {
	case strings.HasSuffix(base, ".html") || strings.HasSuffix(base, ".htm"):
		return CacheNoCache
	case strings.Contains(key, "_next/static/") || contentHashed(base):
		return CacheImmutable
	default:
		return CacheDefault
	}
}

// contentHashed requires a digit in the hash so plain words like
// navigation.js are not mistaken for one.
func contentHashed(base string) bool {
	m := hashedName.FindStringSubmatch(base)
	return m != nil && strings.ContainsAny(m[1], "0123456789")
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
