package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	cfg "github.com/maheshrc27/socialsync-api/configs"
	"github.com/maheshrc27/socialsync-api/internal/models"
)

// RawArchive keeps the provider payload behind every snapshot for later
// reprocessing.
type RawArchive interface {
	Put(ctx context.Context, key string, body []byte) error
}

// ObjectPutter is the subset of *s3.Client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type R2Service struct {
	bucket string
	client ObjectPutter
}

func NewR2Service(client ObjectPutter, bucket string) *R2Service {
	return &R2Service{bucket: bucket, client: client}
}

// NewR2Client builds an S3 client for the Cloudflare R2 account.
func NewR2Client(ctx context.Context, r2 cfg.R2) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	}), nil
}

func (r *R2Service) Put(ctx context.Context, key string, body []byte) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// archiveKey lays payloads out per platform and account, one object per fetch.
func archiveKey(platform models.Platform, accountID int64, at time.Time) string {
	return fmt.Sprintf("analytics/%s/%d/%s.json", platform, accountID, at.UTC().Format("20060102T150405Z"))
}
