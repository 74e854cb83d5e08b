package service

import (
	"context"
	"net/url"
	"time"

	"lingua_edu_backend/internal/config"
	"lingua_edu_backend/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider resolves stored object keys to client-facing URLs. Audio
// assets arrive pre-encoded from the content pipeline; this service only
// serves them out.
type StorageProvider interface {
	ResolveURL(ctx context.Context, filename string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) ResolveURL(ctx context.Context, filename string) string {
	return "/uploads/" + filename
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

// ResolveURL returns a short-lived presigned GET link so the audio bucket can
// stay private.
func (p *MinioStorageProvider) ResolveURL(ctx context.Context, filename string) string {
	u, err := p.Client.PresignedGetObject(ctx, p.Config.MinioBucket, filename, 15*time.Minute, url.Values{})
	if err != nil {
		logger.Log.Warn("presign failed", zap.String("object", filename), zap.Error(err))
		return ""
	}
	return u.String()
}

// StorageService 存储服务
type StorageService struct {
	Provider StorageProvider
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	if cfg.Storage.Type == "minio" {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			provider = p
		} else {
			logger.Log.Warn("minio unavailable, falling back to local storage", zap.Error(err))
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider}
}

// AudioURL resolves a stored audio key to a client-facing URL. Empty keys
// resolve to empty so questions without pronunciation audio stay clean.
func (s *StorageService) AudioURL(ctx context.Context, key string) string {
	if key == "" {
		return ""
	}
	return s.Provider.ResolveURL(ctx, key)
}
