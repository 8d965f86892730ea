package supabase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/wadjakorntonsri/linkhub/pkg/core/domain"
	"github.com/wadjakorntonsri/linkhub/pkg/ports"
)

// AvatarStore uploads profile pictures to a public Storage bucket.
type AvatarStore struct {
	c      *Client
	bucket string

	// storage-go keeps per-upload headers on its shared transport.
	mu sync.Mutex
}

func NewAvatarStore(c *Client, bucket string) *AvatarStore {
	if bucket == "" {
		bucket = "avatars"
	}
	return &AvatarStore{c: c, bucket: bucket}
}

// Upload stores the picture as <userID>-<unix millis><ext> and returns its
// public URL.
func (s *AvatarStore) Upload(ctx context.Context, userID, filename, contentType string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%d%s", userID, time.Now().UnixMilli(), strings.ToLower(path.Ext(filename)))
	upsert := false

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.c.execute("upload avatar", func() (any, error) {
		_, err := s.c.sb.Storage.UploadFile(s.bucket, name, data, storage_go.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		if err != nil {
			var se *storage_go.StorageError
			if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
				return nil, &rejection{err: err}
			}
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if errors.As(err, new(*rejection)) {
			return "", fmt.Errorf("upload avatar: %w: %w", domain.ErrValidation, err)
		}
		if errors.Is(err, domain.ErrStorageUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("upload avatar: %w: %w", domain.ErrStorageUnavailable, err)
	}

	return s.c.sb.Storage.GetPublicUrl(s.bucket, name).SignedURL, nil
}

var _ ports.AvatarStore = (*AvatarStore)(nil)
