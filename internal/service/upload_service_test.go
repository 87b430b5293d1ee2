package service

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"shopadmin/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureMatchesCloudinaryScheme(t *testing.T) {
	cfg := config.CloudinaryConfig{
		CloudName: "demo",
		APIKey:    "key-123",
		APISecret: "shhh",
	}
	svc := &uploadService{
		cfg: cfg,
		now: func() time.Time { return time.Unix(1700000000, 0) },
	}

	sig, err := svc.Signature("avatars")
	require.NoError(t, err)

	payload := fmt.Sprintf("folder=avatars&timestamp=%d%s", 1700000000, cfg.APISecret)
	sum := sha1.Sum([]byte(payload))
	assert.Equal(t, hex.EncodeToString(sum[:]), sig.Signature)
	assert.Equal(t, int64(1700000000), sig.Timestamp)
	assert.Equal(t, "key-123", sig.APIKey)
	assert.Equal(t, "demo", sig.CloudName)
	assert.Equal(t, "avatars", sig.Folder)
}

func TestSignatureDefaultsFolder(t *testing.T) {
	svc := NewUploadService(config.CloudinaryConfig{
		CloudName: "demo", APIKey: "k", APISecret: "s",
	})

	sig, err := svc.Signature("")
	require.NoError(t, err)
	assert.Equal(t, "shopadmin", sig.Folder)
}

func TestSignatureUnconfigured(t *testing.T) {
	svc := NewUploadService(config.CloudinaryConfig{})

	_, err := svc.Signature("avatars")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUploadsNotConfigured))
}
