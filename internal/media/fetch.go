package media

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
)

// maxPayload bounds how much of a single source is read into memory.
const maxPayload = 512 << 20

// Payload is a fetched source.
type Payload struct {
	Data   []byte
	Format string // "mp3", "flac", "wav", "ogg" or "" if unknown
}

// S3Getter is the subset of the S3 client used to fetch objects.
type S3Getter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher resolves media locators to bytes. Supported locators are plain
// paths, file://, http(s):// and s3://bucket/key.
type Fetcher struct {
	client *http.Client
	s3     S3Getter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for http(s) locators.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithS3 enables s3:// locators.
func WithS3(c S3Getter) FetcherOption {
	return func(f *Fetcher) { f.s3 = c }
}

// NewFetcher creates a fetcher.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{client: http.DefaultClient}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// S3Config selects the bucket endpoint.
type S3Config struct {
	Region    string
	Endpoint  string // custom endpoint for S3-compatible stores, empty for AWS
	PathStyle bool
}

// NewS3Client builds an S3 client from the default credential chain.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	}), nil
}

// Fetch reads the whole source addressed by locator.
func (f *Fetcher) Fetch(ctx context.Context, locator string) (Payload, error) {
	if locator == "" {
		return Payload{}, ErrNoSource
	}
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 { // bare path, or a Windows drive letter
		return f.fetchFile(locator)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.fetchFile(u.Path)
	case "http", "https":
		return f.fetchHTTP(ctx, locator)
	case "s3":
		return f.fetchS3(ctx, u)
	default:
		return Payload{}, errors.Newf("media: unsupported locator scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchFile(path string) (Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Payload{}, errors.Wrapf(err, "read %s", path)
	}
	return Payload{Data: data, Format: resolveFormat(path, "", data)}, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, locator string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return Payload{}, errors.Wrap(err, "build request")
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, errors.Wrapf(err, "get %s", locator)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Payload{}, errors.Newf("media: get %s: status %d", locator, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if err != nil {
		return Payload{}, errors.Wrapf(err, "read %s", locator)
	}
	return Payload{Data: data, Format: resolveFormat(locator, resp.Header.Get("Content-Type"), data)}, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, u *url.URL) (Payload, error) {
	if f.s3 == nil {
		return Payload{}, errors.New("media: s3 locators are not configured")
	}
	key := strings.TrimPrefix(u.Path, "/")
	out, err := f.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return Payload{}, errors.Wrapf(err, "get s3://%s/%s", u.Host, key)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxPayload))
	if err != nil {
		return Payload{}, errors.Wrapf(err, "read s3://%s/%s", u.Host, key)
	}
	return Payload{Data: data, Format: resolveFormat(key, aws.ToString(out.ContentType), data)}, nil
}

// resolveFormat prefers the extension, then the declared content type,
// then the payload's magic bytes.
func resolveFormat(locator, contentType string, data []byte) string {
	if f := formatFromLocator(locator); f != "" {
		return f
	}
	if f := formatFromContentType(contentType); f != "" {
		return f
	}
	return sniffFormat(data)
}
