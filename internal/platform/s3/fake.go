package s3

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// FakeObject is an object stored in a FakeAPI.
type FakeObject struct {
	ContentType  string
	CacheControl string
	Body         []byte
}

// FakeAPI is an in-memory S3 used by tests outside this package. Buckets
// created without a location constraint live in us-east-1.
type FakeAPI struct {
	mu       sync.Mutex
	buckets  map[string]string
	objects  map[string]map[string]FakeObject
	policies map[string]string
	websites map[string]bool
}

// NewFakeAPI creates an empty fake.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		buckets:  map[string]string{},
		objects:  map[string]map[string]FakeObject{},
		policies: map[string]string{},
		websites: map[string]bool{},
	}
}

var _ API = (*FakeAPI)(nil)

// AddBucket pre-creates a bucket in region.
func (f *FakeAPI) AddBucket(name, region string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buckets[name] = region
	f.objects[name] = map[string]FakeObject{}
}

// Object returns a stored object.
func (f *FakeAPI) Object(bucket, key string) (FakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[bucket][key]
	return obj, ok
}

// Keys returns the sorted keys of a bucket.
func (f *FakeAPI) Keys(bucket string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects[bucket]))
	for k := range f.objects[bucket] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Policy returns the bucket policy, empty when none was set.
func (f *FakeAPI) Policy(bucket string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.policies[bucket]
}

// Website reports whether website hosting was configured on bucket.
func (f *FakeAPI) Website(bucket string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.websites[bucket]
}

func (f *FakeAPI) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.buckets[aws.ToString(in.Bucket)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *FakeAPI) CreateBucket(_ context.Context, in *s3.CreateBucketInput, _ ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.Bucket)
	if _, ok := f.buckets[name]; ok {
		return nil, &types.BucketAlreadyOwnedByYou{}
	}
	region := "us-east-1"
	if c := in.CreateBucketConfiguration; c != nil && c.LocationConstraint != "" {
		region = string(c.LocationConstraint)
	}
	f.buckets[name] = region
	f.objects[name] = map[string]FakeObject{}
	return &s3.CreateBucketOutput{}, nil
}

func (f *FakeAPI) GetBucketLocation(_ context.Context, in *s3.GetBucketLocationInput, _ ...func(*s3.Options)) (*s3.GetBucketLocationOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	region, ok := f.buckets[aws.ToString(in.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}
	if region == "us-east-1" {
		region = ""
	}
	return &s3.GetBucketLocationOutput{LocationConstraint: types.BucketLocationConstraint(region)}, nil
}

func (f *FakeAPI) PutBucketWebsite(_ context.Context, in *s3.PutBucketWebsiteInput, _ ...func(*s3.Options)) (*s3.PutBucketWebsiteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.websites[aws.ToString(in.Bucket)] = true
	return &s3.PutBucketWebsiteOutput{}, nil
}

func (f *FakeAPI) PutPublicAccessBlock(context.Context, *s3.PutPublicAccessBlockInput, ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error) {
	return &s3.PutPublicAccessBlockOutput{}, nil
}

func (f *FakeAPI) PutBucketPolicy(_ context.Context, in *s3.PutBucketPolicyInput, _ ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies[aws.ToString(in.Bucket)] = aws.ToString(in.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

func (f *FakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var body []byte
	if in.Body != nil {
		var err error
		if body, err = io.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	objects, ok := f.objects[aws.ToString(in.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}
	objects[aws.ToString(in.Key)] = FakeObject{
		ContentType:  aws.ToString(in.ContentType),
		CacheControl: aws.ToString(in.CacheControl),
		Body:         body,
	}
	return &s3.PutObjectOutput{}, nil
}

// ListObjectsV2 returns every matching key in one page.
func (f *FakeAPI) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects, ok := f.objects[aws.ToString(in.Bucket)]
	if !ok {
		return nil, &types.NoSuchBucket{}
	}
	prefix := aws.ToString(in.Prefix)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for k := range objects {
		if strings.HasPrefix(k, prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
		}
	}
	slices.SortFunc(out.Contents, func(a, b types.Object) int {
		return strings.Compare(aws.ToString(a.Key), aws.ToString(b.Key))
	})
	return out, nil
}

func (f *FakeAPI) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	objects := f.objects[aws.ToString(in.Bucket)]
	out := &s3.DeleteObjectsOutput{}
	for _, id := range in.Delete.Objects {
		delete(objects, aws.ToString(id.Key))
		out.Deleted = append(out.Deleted, types.DeletedObject{Key: id.Key})
	}
	return out, nil
}
