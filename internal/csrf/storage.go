package csrf

import (
	"context"
	"strconv"

	"github.com/duchm/foliogate/params"
	"github.com/gofiber/fiber/v2"
)

// StorageStore backs the token store with a fiber.Storage implementation
// (e.g. gofiber/storage/redis) so multiple replicas can share it. Entry
// expiry is handled by the backend's TTL; there is nothing to sweep.
type StorageStore struct {
	storage fiber.Storage
}

func storageKey(adminID uint) string {
	return "csrf:" + strconv.FormatUint(uint64(adminID), 10)
}

func (s *StorageStore) Issue(ctx context.Context, adminID uint) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	if err := s.storage.Set(storageKey(adminID), []byte(token), params.CSRFTokenExpiration); err != nil {
		return "", err
	}
	return token, nil
}

func (s *StorageStore) Validate(ctx context.Context, adminID uint, token string) bool {
	stored, err := s.storage.Get(storageKey(adminID))
	if err != nil || len(stored) == 0 {
		return false
	}
	return string(stored) == token
}

func (s *StorageStore) Revoke(ctx context.Context, adminID uint) error {
	return s.storage.Delete(storageKey(adminID))
}

func NewStorageStore(storage fiber.Storage) *StorageStore {
	return &StorageStore{storage: storage}
}
