package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
)

// AvatarStore keeps uploaded avatars on local disk under one folder per
// account. File names are random, so a fresh upload never collides with
// or overwrites a concurrent one; the "current" symlink-free contract is
// simply "latest file wins" at the caller's discretion.
type AvatarStore struct {
	root string
}

func NewAvatarStore(root string) (*AvatarStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar root: %w", err)
	}
	return &AvatarStore{root: root}, nil
}

// SaveAvatar streams the upload to disk and returns the stored path
// relative to the avatar root.
func (s *AvatarStore) SaveAvatar(accountId domain.AccountId, filename string, r io.Reader) (string, error) {
	dir := filepath.Join(s.root, strconv.FormatInt(int64(accountId), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar dir: %w", err)
	}

	// Keep the original extension, drop the rest of the client name.
	name := uuid.NewString() + filepath.Ext(filename)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}
	return filepath.Join(strconv.FormatInt(int64(accountId), 10), name), nil
}
