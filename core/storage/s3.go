package storage

import (
	"context"
	"fmt"
	"time"

	"tablepick/core/config"
	"tablepick/core/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = 15 * time.Minute

// PhotoStorage issues presigned upload URLs for restaurant candidate photos.
type PhotoStorage interface {
	PresignPhotoUpload(ctx context.Context, planID, candidateID string) (string, error)
}

type S3Storage struct {
	bucket  string
	presign *s3.PresignClient
}

func NewS3Storage(cfg config.S3Config) *S3Storage {
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)

	return &S3Storage{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
	}
}

func (s *S3Storage) PresignPhotoUpload(ctx context.Context, planID, candidateID string) (string, error) {
	key := fmt.Sprintf("plans/%s/candidates/%s.jpg", planID, candidateID)
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String("image/jpeg"),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		logger.Error("S3Storage:PresignPhotoUpload:Error", "key", key, "error", err)
		return "", err
	}
	return req.URL, nil
}
