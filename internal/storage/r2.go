package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/nina031/MenuScanner-backend/internal/config"
	"github.com/nina031/MenuScanner-backend/internal/errs"
)

// R2Client stores temporary menu images in Cloudflare R2 through the S3 API.
type R2Client struct {
	client         *s3.Client
	bucket         string
	retentionHours int
}

func NewR2Client(ctx context.Context, settings *config.Settings) (*R2Client, error) {
	endpoint := settings.R2Endpoint

	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				settings.R2AccessKey,
				settings.R2SecretKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Client{
		client:         client,
		bucket:         settings.R2BucketName,
		retentionHours: settings.TempFileRetentionHours,
	}, nil
}

// Upload stores content under a fresh temp key and returns that key.
func (r *R2Client) Upload(ctx context.Context, content []byte, extension, contentType string) (string, error) {
	key := generateTempKey(extension)

	input := &s3.PutObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
		Body:   bytes.NewReader(content),
		Metadata: map[string]string{
			"upload-timestamp": time.Now().UTC().Format(time.RFC3339),
			"retention-hours":  strconv.Itoa(r.retentionHours),
			"scanner-version":  config.AppVersion,
		},
	}
	if contentType != "" {
		input.ContentType = &contentType
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		return "", errs.Storage(errs.CodeStorageError, "upload échoué: %v", err).
			WithDetail("key", key)
	}

	log.Printf("TEMP_FILE_UPLOADED key=%s size=%d content_type=%s", key, len(content), contentType)
	return key, nil
}

// Download fetches a temp file by key. A missing key maps to FILE_NOT_FOUND.
func (r *R2Client) Download(ctx context.Context, key string) ([]byte, error) {
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return nil, errs.Storage(errs.CodeFileNotFound, "fichier non trouvé: %s", key)
		}
		return nil, errs.Storage(errs.CodeStorageError, "téléchargement échoué: %v", err).
			WithDetail("key", key)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errs.Storage(errs.CodeStorageError, "lecture échouée: %v", err).
			WithDetail("key", key)
	}

	log.Printf("TEMP_FILE_DOWNLOADED key=%s size=%d", key, len(content))
	return content, nil
}

// Delete removes a temp file.
func (r *R2Client) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &r.bucket,
		Key:    &key,
	})
	if err != nil {
		return errs.Storage(errs.CodeStorageError, "suppression échouée: %v", err).
			WithDetail("key", key)
	}

	log.Printf("TEMP_FILE_DELETED key=%s", key)
	return nil
}

// Ping lists at most one object to verify bucket access.
func (r *R2Client) Ping(ctx context.Context) bool {
	one := int32(1)
	_, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  &r.bucket,
		MaxKeys: &one,
	})
	if err != nil {
		log.Printf("R2_PING_FAILED bucket=%s error=%v", r.bucket, err)
		return false
	}
	return true
}

// generateTempKey builds temp/<YYYYMMDD_HHMMSS>_<uuid8><ext>, sortable by
// upload time for later garbage collection.
func generateTempKey(extension string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	unique := uuid.New().String()[:8]
	return fmt.Sprintf("temp/%s_%s%s", timestamp, unique, extension)
}
