package keys

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	dbpkg "eventpulse/internal/db"
)

var (
	// ErrUnauthenticated is returned when a key is missing, unknown or
	// revoked (as far as the store or cache can tell).
	ErrUnauthenticated = errors.New("invalid or missing API key")

	// ErrNotFound is returned by Revoke when the key does not exist or
	// belongs to a different owner. The two cases are deliberately
	// indistinguishable so callers cannot probe for other owners' keys.
	ErrNotFound = errors.New("API key not found")
)

// Service manages the API key lifecycle (issuance, listing, revocation)
// and the validation path used by event collection.
type Service struct {
	db    *gorm.DB
	cache *ValidationCache
	log   *zap.Logger
}

// NewService wires the lifecycle manager to its store and validation cache.
func NewService(gdb *gorm.DB, cache *ValidationCache, log *zap.Logger) *Service {
	return &Service{db: gdb, cache: cache, log: log}
}

// IssuedKey is the one-time result of registering an application. PlainKey
// is never retrievable again; only its hash is stored.
type IssuedKey struct {
	ApplicationID uint
	PlainKey      string
}

// Issue registers an application for the owner and mints its API key. The
// application and key rows commit together or not at all.
func (s *Service) Issue(ctx context.Context, ownerID uint, name, domain string) (*IssuedKey, error) {
	plain, err := GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	hash := HashKey(plain)

	var appID uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app := &dbpkg.Application{UserID: ownerID, Name: name, Domain: domain}
		if err := tx.Create(app).Error; err != nil {
			return err
		}
		key := &dbpkg.APIKey{
			ApplicationID: app.ID,
			KeyHash:       hash,
			Status:        dbpkg.KeyStatusActive,
		}
		if err := tx.Create(key).Error; err != nil {
			return err
		}
		appID = app.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("application registered",
		zap.Uint("app_id", appID), zap.Uint("owner_id", ownerID), zap.String("name", name))

	return &IssuedKey{ApplicationID: appID, PlainKey: plain}, nil
}

// KeyInfo is one row of the owner's management view.
type KeyInfo struct {
	ApplicationID uint   `gorm:"column:app_id" json:"appId"`
	Name          string `gorm:"column:name" json:"name"`
	Domain        string `gorm:"column:domain" json:"domain"`
	KeyID         uint   `gorm:"column:api_key_id" json:"apiKeyId"`
	Status        string `gorm:"column:status" json:"status"`
}

// ListForOwner returns the owner's applications with their key status.
// Reads the store directly; a management view needs freshness, not caching.
func (s *Service) ListForOwner(ctx context.Context, ownerID uint) ([]KeyInfo, error) {
	var rows []KeyInfo
	err := s.db.WithContext(ctx).Raw(
		`SELECT a.id AS app_id, a.name AS name, a.domain AS domain, k.id AS api_key_id, k.status AS status
		 FROM applications a
		 JOIN api_keys k ON k.application_id = a.id
		 WHERE a.user_id = ?
		 ORDER BY k.id`,
		ownerID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Revoke flips the key to revoked, but only when it belongs to an
// application owned by ownerID. The ownership check and the mutation are a
// single statement so ownership cannot change between check and write.
// Zero matched rows means absent or not owned; both map to ErrNotFound.
func (s *Service) Revoke(ctx context.Context, ownerID, apiKeyID uint) error {
	res := s.db.WithContext(ctx).Exec(
		`UPDATE api_keys SET status = ?
		 WHERE id = ?
		   AND application_id IN (SELECT id FROM applications WHERE user_id = ?)`,
		dbpkg.KeyStatusRevoked, apiKeyID, ownerID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	// The validation cache is left alone: a previously cached key keeps
	// authenticating for up to the cache TTL. Accepted staleness window.
	s.log.Info("api key revoked", zap.Uint("api_key_id", apiKeyID), zap.Uint("owner_id", ownerID))
	return nil
}

// Resolve maps a plaintext API key to the application it belongs to,
// consulting the validation cache before the key store. Safe for
// concurrent use; concurrent misses for the same key may each hit the
// store once.
func (s *Service) Resolve(ctx context.Context, plaintext string) (uint, error) {
	if plaintext == "" {
		return 0, fmt.Errorf("missing key: %w", ErrUnauthenticated)
	}

	if appID, ok := s.cache.get(plaintext); ok {
		return appID, nil
	}

	var key dbpkg.APIKey
	err := s.db.WithContext(ctx).
		Where("key_hash = ? AND status = ?", HashKey(plaintext), dbpkg.KeyStatusActive).
		First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("invalid key: %w", ErrUnauthenticated)
	}
	if err != nil {
		return 0, err
	}

	s.cache.put(plaintext, key.ApplicationID)
	return key.ApplicationID, nil
}
