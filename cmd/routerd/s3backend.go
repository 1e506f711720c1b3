package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/FairForge/meshrouter/internal/router"
)

// s3Backend answers a request by fetching its URL path as an object key
// from a single S3-compatible bucket. It stands in for "a client to a
// discovered destination" in this example composition root — real
// deployments bind whatever destination their service mesh discovered.
type s3Backend struct {
	bucket string
	client *s3.Client
	logger *zap.Logger
}

func newS3Backend(ctx context.Context, endpoint, bucket, accessKey, secretKey string, logger *zap.Logger) (router.Handler, error) {
	creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(creds),
		config.WithRegion("us-east-1"),
	)
	if err != nil {
		return nil, fmt.Errorf("s3backend: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	backend := &s3Backend{bucket: bucket, client: client, logger: logger}
	return router.Wrap(backend), nil
}

func (b *s3Backend) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.Path
	out, err := b.client.GetObject(req.Context(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		b.logger.Warn("s3backend: get object failed", zap.String("bucket", b.bucket), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("s3backend: get %s/%s: %w", b.bucket, key, err)
	}

	header := make(http.Header)
	if out.ContentType != nil {
		header.Set("Content-Type", *out.ContentType)
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       out.Body,
		Request:    req,
	}, nil
}
