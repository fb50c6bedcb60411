// file: service/storage_service.go

package service

import (
	"context"
	"fmt"
	"go-user-api/logger"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// IUploader is the object storage collaborator: it moves a local temporary
// file into the object store and returns its public URL.
type IUploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// StorageService implements IUploader over an S3-compatible endpoint.
type StorageService struct {
	client   *s3.Client
	bucket   string
	endpoint string
	region   string
}

// StorageConfig carries the S3 connection settings.
type StorageConfig struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func NewStorageService(ctx context.Context, cfg StorageConfig) (*StorageService, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &StorageService{
		client:   client,
		bucket:   cfg.Bucket,
		endpoint: cfg.Endpoint,
		region:   cfg.Region,
	}, nil
}

func storageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("images/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

// Upload puts the file at localPath into the bucket and returns its URL.
// The local temporary file is removed regardless of the outcome, so a failed
// upload never leaks artifacts into the temp directory.
func (s *StorageService) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
			logger.Log.WithError(err).WithField("path", localPath).Warn("Failed to remove local upload artifact")
		}
	}()

	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	key := storageKey(filepath.Ext(localPath))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Error("Failed to put object")
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	url := s.objectURL(key)
	logger.Log.WithField("url", url).Info("Uploaded file to object storage")
	return url, nil
}

func (s *StorageService) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
