package assetstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var _ AssetStore = (*BoltStore)(nil)

var (
	contentBucket = []byte("assets")
	typeBucket    = []byte("asset_types")
)

// BoltStore keeps images in a local bbolt file. Used for development and tests,
// the assets are served by the HTTP transport under /assets/.
type BoltStore struct {
	db      *bolt.DB
	folder  string
	baseURL string
}

// OpenBoltStore opens (or creates) the database file at path.
// publicBaseURL is the externally visible address of the HTTP server.
func OpenBoltStore(path, folder, publicBaseURL string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create asset db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open asset db %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{contentBucket, typeBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create asset buckets: %w", err)
	}
	return &BoltStore{db: db, folder: folder, baseURL: strings.TrimSuffix(publicBaseURL, "/")}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Upload stores a data URI or raw base64 payload. Remote URLs are not fetched.
func (s *BoltStore) Upload(ctx context.Context, payload string) (AssetReference, error) {
	if isRemoteURL(payload) {
		return AssetReference{}, fmt.Errorf("%w: remote URLs are not supported by the local asset store", ErrUnsupportedPayload)
	}
	data, contentType, err := decodePayload(payload)
	if err != nil {
		return AssetReference{}, err
	}
	if err := ctx.Err(); err != nil {
		return AssetReference{}, err
	}
	key := s.folder + "/" + uuid.NewString()
	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(contentBucket).Put([]byte(key), data); err != nil {
			return err
		}
		return tx.Bucket(typeBucket).Put([]byte(key), []byte(contentType))
	})
	if err != nil {
		return AssetReference{}, fmt.Errorf("failed to store asset: %w", err)
	}
	return AssetReference{
		Locator: s.baseURL + "/assets/" + key + extensionFor(contentType),
		Key:     key,
	}, nil
}

func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		content := tx.Bucket(contentBucket)
		if content.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		if err := content.Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(typeBucket).Delete([]byte(key))
	})
}

// Open returns the content and content type of an asset.
func (s *BoltStore) Open(key string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(contentBucket).Get([]byte(key))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		// values are only valid inside the transaction
		data = append([]byte(nil), v...)
		contentType = string(tx.Bucket(typeBucket).Get([]byte(key)))
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// IsNotFound reports whether err means the asset does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound)
}
