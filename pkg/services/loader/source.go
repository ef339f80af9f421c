package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens the raw dataset payload.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// NewSource picks a source from the location scheme: http(s)://, s3:// or a local path.
func NewSource(ctx context.Context, location string) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("dataset location is empty")
	}

	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// single-letter schemes are windows drive letters
		return FileSource{Path: location}, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return HTTPSource{URL: location, Client: http.DefaultClient}, nil
	case "s3":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return S3Source{
			Client: s3.NewFromConfig(cfg),
			Bucket: u.Host,
			Key:    strings.TrimPrefix(u.Path, "/"),
		}, nil
	case "file":
		return FileSource{Path: u.Path}, nil
	}
	return nil, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
}

type FileSource struct {
	Path string
}

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileSource) String() string {
	return f.Path
}

// HTTPSource issues a single GET. Non-2xx answers are failures; nothing is retried.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (h HTTPSource) String() string {
	return h.URL
}

// GetObjectAPI is the part of the S3 client used to fetch datasets.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

func (s S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3 object: %w", err)
	}
	return out.Body, nil
}

func (s S3Source) String() string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, s.Key)
}
