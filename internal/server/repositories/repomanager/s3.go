package repomanager

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/tourcheck/internal/server/config"
	"github.com/dmitrijs2005/tourcheck/internal/server/repositories/documents"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
)

// s3Client is what the manager needs from *s3.Client.
type s3Client interface {
	documents.S3API
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type S3RepositoryManager struct {
	client s3Client
	bucket string
}

// NewS3RepositoryManager builds an S3 client with static credentials and a
// custom endpoint, suitable for MinIO and other S3-compatible servers.
func NewS3RepositoryManager(ctx context.Context, cfg *config.Config) (*S3RepositoryManager, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return &S3RepositoryManager{client: client, bucket: cfg.S3Bucket}, nil
}

func (m *S3RepositoryManager) Documents() documents.Repository {
	return documents.NewS3Repository(m.client, m.bucket)
}

func (m *S3RepositoryManager) Ping(ctx context.Context) error {
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	return err
}

func (m *S3RepositoryManager) Close() error { return nil }
