package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3 object metadata keys. Values are query-escaped because S3 metadata
// must be ASCII.
const (
	metaUsername = "username"
	metaName     = "file-name"
	metaFilename = "original-filename"
	metaTime     = "upload-time"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Config configures an S3Store and, through NewS3Client, its client.
type S3Config struct {
	Bucket string

	// Prefix is prepended to every key (e.g., "data/").
	Prefix string

	Region string

	// Endpoint overrides the AWS endpoint, e.g. "http://minio:9000".
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string

	// UsePathStyle addresses buckets as endpoint/bucket/key, which MinIO
	// requires.
	UsePathStyle bool

	// MaxSize is the maximum file size in bytes (0 = no limit).
	MaxSize int64

	// URLExpiry is how long presigned URLs are valid (default 24h).
	URLExpiry time.Duration
}

// NewS3Client builds an S3 client from static settings. With no access key
// the client sends unsigned requests.
func NewS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "cohis config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) { return creds, nil },
		))
	}
	return s3.New(opts)
}

// S3Store stores uploads in an S3 bucket. Upload metadata travels as object
// metadata, so the bucket is the only state.
type S3Store struct {
	client    S3API
	presign   *s3.PresignClient
	bucket    string
	prefix    string
	maxSize   int64
	urlExpiry time.Duration
}

// NewS3Store creates a store over client. Presigned URLs are produced only
// when client is an *s3.Client.
//
// Example usage:
//
//	cfg := upload.S3Config{Bucket: "cohis", Endpoint: "http://minio:9000", UsePathStyle: true}
//	store := upload.NewS3Store(upload.NewS3Client(cfg), cfg)
func NewS3Store(client S3API, cfg S3Config) *S3Store {
	s := &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		maxSize:   cfg.MaxSize,
		urlExpiry: cfg.URLExpiry,
	}
	if s.urlExpiry <= 0 {
		s.urlExpiry = 24 * time.Hour
	}
	if c, ok := client.(*s3.Client); ok {
		s.presign = s3.NewPresignClient(c)
	}
	return s
}

// Save buffers r and uploads it as one object.
func (s *S3Store) Save(ctx context.Context, info Info, r io.Reader) (Info, error) {
	if s.maxSize > 0 && info.Size > s.maxSize {
		return Info{}, ErrTooLarge
	}

	var buf bytes.Buffer
	n, err := copyLimited(&buf, r, s.maxSize)
	if err != nil {
		return Info{}, err
	}

	info.ID = newID()
	info.Size = n
	info.CreatedAt = time.Now().UTC().Truncate(time.Second)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(info.ID)),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(n),
		ContentType:   aws.String(info.ContentType),
		Metadata: map[string]string{
			metaUsername: url.QueryEscape(info.Username),
			metaName:     url.QueryEscape(info.Name),
			metaFilename: url.QueryEscape(info.Filename),
			metaTime:     info.CreatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return Info{}, fmt.Errorf("s3 upload failed: %w", err)
	}
	return info, nil
}

// Open fetches the object. File.URL carries a presigned GET URL when the
// store can sign.
func (s *S3Store) Open(ctx context.Context, id string) (*File, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	key := s.key(id)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	f := &File{
		Info:   objectInfo(id, out.Metadata, out.ContentType, out.ContentLength, out.LastModified),
		Reader: out.Body,
	}
	if s.presign != nil {
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.urlExpiry))
		if err == nil {
			f.URL = req.URL
		}
	}
	return f, nil
}

// List walks the prefix and reads each object's metadata.
func (s *S3Store) List(ctx context.Context, username string) ([]Info, error) {
	var out []Info
	err := s.walk(ctx, func(obj types.Object) error {
		id := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
		if !validID(id) {
			return nil
		}
		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		})
		if err != nil {
			if errors.Is(s.mapError(err), ErrNotFound) {
				return nil
			}
			return err
		}
		info := objectInfo(id, head.Metadata, head.ContentType, head.ContentLength, head.LastModified)
		if username == "" || info.Username == username {
			out = append(out, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound.
func (s *S3Store) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	key := aws.String(s.key(id))
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return s.mapError(err)
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key})
	return err
}

// Cleanup deletes objects under the prefix last modified before
// now-maxAge.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	var toDelete []*string
	err := s.walk(ctx, func(obj types.Object) error {
		if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
			toDelete = append(toDelete, obj.Key)
		}
		return nil
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range toDelete {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    key,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", aws.ToString(key), err))
		}
	}
	return errors.Join(errs...)
}

func (s *S3Store) walk(ctx context.Context, fn func(types.Object) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if err := fn(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *S3Store) key(id string) string {
	return s.prefix + id
}

func (s *S3Store) mapError(err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return ErrNotFound
	}
	return err
}

func objectInfo(id string, meta map[string]string, contentType *string, size *int64, modified *time.Time) Info {
	info := Info{
		ID:          id,
		Username:    unescape(meta[metaUsername]),
		Name:        unescape(meta[metaName]),
		Filename:    unescape(meta[metaFilename]),
		ContentType: "application/octet-stream",
		Size:        aws.ToInt64(size),
	}
	if info.Filename == "" {
		info.Filename = id
	}
	if contentType != nil {
		info.ContentType = *contentType
	}
	if t, err := time.Parse(time.RFC3339, meta[metaTime]); err == nil {
		info.CreatedAt = t
	} else if modified != nil {
		info.CreatedAt = *modified
	}
	return info
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}
