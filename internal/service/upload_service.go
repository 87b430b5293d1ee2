package service

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"shopadmin/internal/config"
)

var ErrUploadsNotConfigured = errors.New("uploads are not configured")

// SignatureResponse carries everything the browser needs to upload straight
// to the image host without the file ever passing through this API.
type SignatureResponse struct {
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
	Folder    string `json:"folder"`
}

type UploadService interface {
	Signature(folder string) (*SignatureResponse, error)
}

type uploadService struct {
	cfg config.CloudinaryConfig
	now func() time.Time
}

func NewUploadService(cfg config.CloudinaryConfig) UploadService {
	return &uploadService{cfg: cfg, now: time.Now}
}

// Signature signs the upload parameters the Cloudinary way: parameters sorted
// by key, joined as key=value pairs with '&', then SHA-1 over that string
// plus the API secret.
func (s *uploadService) Signature(folder string) (*SignatureResponse, error) {
	if !s.cfg.Configured() {
		return nil, ErrUploadsNotConfigured
	}

	if folder == "" {
		folder = "shopadmin"
	}
	timestamp := s.now().Unix()

	params := map[string]string{
		"folder":    folder,
		"timestamp": fmt.Sprintf("%d", timestamp),
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	payload := strings.Join(pairs, "&") + s.cfg.APISecret

	sum := sha1.Sum([]byte(payload))
	return &SignatureResponse{
		Signature: hex.EncodeToString(sum[:]),
		Timestamp: timestamp,
		APIKey:    s.cfg.APIKey,
		CloudName: s.cfg.CloudName,
		Folder:    folder,
	}, nil
}
