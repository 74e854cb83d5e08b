package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"lingua_edu_backend/internal/config"
)

func TestLocalProviderResolvesUploadPath(t *testing.T) {
	p := &LocalStorageProvider{Config: &config.StorageConfig{}}
	assert.Equal(t, "/uploads/tones_ma.mp3", p.ResolveURL(context.Background(), "tones_ma.mp3"))
}

func TestAudioURLEmptyKeyStaysEmpty(t *testing.T) {
	svc := &StorageService{Provider: &LocalStorageProvider{Config: &config.StorageConfig{}}}
	assert.Equal(t, "", svc.AudioURL(context.Background(), ""))
	assert.Equal(t, "/uploads/k1.mp3", svc.AudioURL(context.Background(), "k1.mp3"))
}
