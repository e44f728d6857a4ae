// Package media archives original uploads in MinIO so owners can download
// them again while the presentation is live.
package media

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/princekumarofficial/zcreens-service/internal/config"
)

type Service struct {
	client     *minio.Client
	bucketName string
	config     *config.Media
}

type DownloadInfo struct {
	ObjectKey   string `json:"object_key"`
	DownloadURL string `json:"download_url"`
	ExpiresAt   int64  `json:"expires_at"`
}

// NewService creates a new media service instance
func NewService(ctx context.Context, cfg *config.Config) (*Service, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKeyID, cfg.MinIO.SecretAccessKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	service := newService(client, cfg.MinIO.BucketName, &cfg.Media)

	if err := service.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return service, nil
}

func newService(client *minio.Client, bucket string, cfg *config.Media) *Service {
	return &Service{client: client, bucketName: bucket, config: cfg}
}

// ensureBucket creates the bucket if it doesn't exist
func (s *Service) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ObjectKey places an original under its owner and presentation, keeping the
// upload's extension.
func (s *Service) ObjectKey(userID, presentationID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".bin"
	}
	return path.Join("users", userID, "originals", presentationID+ext)
}

// ArchiveOriginal uploads the original bytes of a presentation.
func (s *Service) ArchiveOriginal(ctx context.Context, objectKey, contentType string, data []byte) error {
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(objectKey))
	}
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", objectKey, err)
	}
	return nil
}

// DeleteOriginal removes an archived original. Missing objects are not an
// error.
func (s *Service) DeleteOriginal(ctx context.Context, objectKey string) error {
	return s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{})
}

// PresignedDownload creates a time-limited URL that downloads the original
// under its uploaded file name.
func (s *Service) PresignedDownload(ctx context.Context, objectKey, fileName string) (*DownloadInfo, error) {
	expiry := time.Duration(s.config.PresignedURLTTL) * time.Second

	params := url.Values{}
	if fileName != "" {
		params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, expiry, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &DownloadInfo{
		ObjectKey:   objectKey,
		DownloadURL: u.String(),
		ExpiresAt:   time.Now().Add(expiry).Unix(),
	}, nil
}

// GetObjectInfo returns information about an object
func (s *Service) GetObjectInfo(ctx context.Context, objectKey string) (minio.ObjectInfo, error) {
	return s.client.StatObject(ctx, s.bucketName, objectKey, minio.StatObjectOptions{})
}
