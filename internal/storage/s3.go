// Package storage publishes finished batches to S3-compatible object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// S3Config contains minimal configuration for creating an S3 client.
// Empty values fall back to the standard AWS config/credential chain.
type S3Config struct {
	Region       string
	Profile      string
	UsePathStyle bool
}

// ObjectAPI is the subset of the S3 client the publisher uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// NewClient creates an S3 client from the default AWS configuration chain
// with optional overrides.
func NewClient(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// Publisher uploads batch outputs under <prefix>/<customer>/<file>.
type Publisher struct {
	api          ObjectAPI
	bucket       string
	prefix       string
	skipExisting bool
	logger       *zap.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSkipExisting leaves objects already in the bucket untouched. Ledgers
// are uploaded regardless since they grow with every batch.
func WithSkipExisting() PublisherOption {
	return func(p *Publisher) { p.skipExisting = true }
}

// NewPublisher returns a Publisher writing to bucket. By default every file
// is uploaded, replacing any object under the same key.
func NewPublisher(api ObjectAPI, bucket, prefix string, logger *zap.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Publisher{
		api:    api,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Key returns the object key for a file of a customer folder.
func (p *Publisher) Key(customerFolder, file string) string {
	return path.Join(p.prefix, customerFolder, filepath.Base(file))
}

// Put uploads one object.
func (p *Publisher) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := p.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}

// Exists returns true if the object exists; false on 404/NotFound.
func (p *Publisher) Exists(ctx context.Context, key string) (bool, error) {
	_, err := p.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return false, nil
	}
	return false, err
}

// PublishFiles uploads every file into the customer folder and returns the
// keys written.
func (p *Publisher) PublishFiles(ctx context.Context, customerFolder string, files []string) ([]string, error) {
	var written []string
	for _, f := range files {
		key := p.Key(customerFolder, f)
		if p.skipExisting && !isLedger(f) {
			ok, err := p.Exists(ctx, key)
			if err != nil {
				return written, err
			}
			if ok {
				p.logger.Debug("object exists, skipping", zap.String("key", key))
				continue
			}
		}
		if err := p.putFile(ctx, key, f); err != nil {
			return written, err
		}
		written = append(written, key)
		p.logger.Info("published", zap.String("bucket", p.bucket), zap.String("key", key))
	}
	return written, nil
}

func isLedger(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".csv")
}

func (p *Publisher) putFile(ctx context.Context, key, file string) error {
	fh, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer fh.Close()
	return p.Put(ctx, key, fh, contentType(file))
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".mp4":
		return "video/mp4"
	case ".csv":
		return "text/csv"
	}
	return mime.TypeByExtension(filepath.Ext(file))
}
