// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Options configures an S3-compatible bucket.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, enables path-style addressing (MinIO, R2, LocalStack)
	AccessKeyID     string
	SecretAccessKey string
}

// S3Store writes documents to an S3 bucket.
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store loads the AWS configuration and builds an S3 client.
func NewS3Store(ctx context.Context, options S3Options) (*S3Store, error) {
	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(options.Region),
	}

	if options.AccessKeyID != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(options.AccessKeyID, options.SecretAccessKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to load aws config: %w", err)
	}

	var clientOptions []func(*s3.Options)
	if options.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Store{client: s3.NewFromConfig(awsConfig, clientOptions...), bucket: options.Bucket}, nil
}

// Put implements [Store]. The reference is an s3:// URI; reviewers resolve it
// through presigned URLs outside this service.
func (store *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := store.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(store.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3_put_object_failed: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", store.bucket, key), nil
}
