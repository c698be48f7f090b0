// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	principalKeyPrefix   = "principal:"
	fileKeyPrefix        = "file:"
	entitlementKeyPrefix = "entitlement:"
	productKeyPrefix     = "product:"
	eventKeyPrefix       = "event:"
	staffKeyPrefix       = "staff:"
	memberKeyPrefix      = "member:"
	attendeeKeyPrefix    = "attendee:"
)

// Store is the BadgerDB-backed document store. It implements every
// read interface the authorization core consumes.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured path. With
// InMemory set, the store lives entirely in memory, which tests use.
func Open(cfg *config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Store opened")

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunGC runs BadgerDB value log garbage collection once.
// badger.ErrNoRewrite means there was nothing to reclaim.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// getJSON loads and unmarshals the value at key into out.
func (s *Store) getJSON(key string, out interface{}) error {
	start := time.Now()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	metrics.RecordStoreOperation("get", keyPrefix(key), time.Since(start), err)
	return err
}

// setJSON marshals v and stores it at key.
func (s *Store) setJSON(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	start := time.Now()
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	metrics.RecordStoreOperation("set", keyPrefix(key), time.Since(start), err)
	return err
}

// setFlag stores a presence marker at key.
func (s *Store) setFlag(key string) error {
	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte{1})
	})
	metrics.RecordStoreOperation("set", keyPrefix(key), time.Since(start), err)
	return err
}

// hasFlag reports whether a presence marker exists at key.
func (s *Store) hasFlag(key string) (bool, error) {
	start := time.Now()
	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	metrics.RecordStoreOperation("get", keyPrefix(key), time.Since(start), err)
	return found, err
}

// keyPrefix extracts the prefix up to the first colon for metrics.
func keyPrefix(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}

// GetPrincipal retrieves a principal by ID.
func (s *Store) GetPrincipal(ctx context.Context, id string) (*models.Principal, error) {
	var principal models.Principal
	if err := s.getJSON(principalKeyPrefix+id, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// PutPrincipal stores a principal.
func (s *Store) PutPrincipal(ctx context.Context, principal *models.Principal) error {
	return s.setJSON(principalKeyPrefix+principal.ID, principal)
}

// GetFile retrieves a protected file record by ID.
func (s *Store) GetFile(ctx context.Context, id string) (*models.ProtectedFile, error) {
	var file models.ProtectedFile
	if err := s.getJSON(fileKeyPrefix+id, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// PutFile stores a protected file record.
func (s *Store) PutFile(ctx context.Context, file *models.ProtectedFile) error {
	return s.setJSON(fileKeyPrefix+file.ID, file)
}

// GetEntitlement retrieves an entitlement by ID.
func (s *Store) GetEntitlement(ctx context.Context, id string) (*models.Entitlement, error) {
	var entitlement models.Entitlement
	if err := s.getJSON(entitlementKeyPrefix+id, &entitlement); err != nil {
		return nil, err
	}
	return &entitlement, nil
}

// PutEntitlement stores an entitlement.
func (s *Store) PutEntitlement(ctx context.Context, entitlement *models.Entitlement) error {
	return s.setJSON(entitlementKeyPrefix+entitlement.ID, entitlement)
}

// GetProduct retrieves a product by ID.
func (s *Store) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.getJSON(productKeyPrefix+id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// PutProduct stores a product.
func (s *Store) PutProduct(ctx context.Context, product *models.Product) error {
	return s.setJSON(productKeyPrefix+product.ID, product)
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := s.getJSON(eventKeyPrefix+id, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// PutEvent stores an event.
func (s *Store) PutEvent(ctx context.Context, event *models.Event) error {
	return s.setJSON(eventKeyPrefix+event.ID, event)
}

// AddEventStaff grants a principal scanning authority for an event.
func (s *Store) AddEventStaff(ctx context.Context, eventID, principalID string) error {
	return s.setFlag(staffKeyPrefix + eventID + ":" + principalID)
}

// IsEventStaff reports whether the principal holds scanning authority
// for the event, either as recorded staff or as its organizer.
func (s *Store) IsEventStaff(ctx context.Context, eventID, principalID string) (bool, error) {
	found, err := s.hasFlag(staffKeyPrefix + eventID + ":" + principalID)
	if err != nil || found {
		return found, err
	}

	event, err := s.GetEvent(ctx, eventID)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return event.OrganizerID != "" && event.OrganizerID == principalID, nil
}

// AddCourseMember enrolls a principal in a course.
func (s *Store) AddCourseMember(ctx context.Context, courseID, principalID string) error {
	return s.setFlag(memberKeyPrefix + models.ContentTypeCourse + ":" + courseID + ":" + principalID)
}

// IsCourseMember reports whether the principal is enrolled in the course.
func (s *Store) IsCourseMember(ctx context.Context, courseID, principalID string) (bool, error) {
	return s.hasFlag(memberKeyPrefix + models.ContentTypeCourse + ":" + courseID + ":" + principalID)
}

// AddCommunityMember adds a principal to a community.
func (s *Store) AddCommunityMember(ctx context.Context, communityID, principalID string) error {
	return s.setFlag(memberKeyPrefix + models.ContentTypeCommunity + ":" + communityID + ":" + principalID)
}

// IsCommunityMember reports whether the principal belongs to the community.
func (s *Store) IsCommunityMember(ctx context.Context, communityID, principalID string) (bool, error) {
	return s.hasFlag(memberKeyPrefix + models.ContentTypeCommunity + ":" + communityID + ":" + principalID)
}

// AddEventAttendee records a principal as attending an event.
func (s *Store) AddEventAttendee(ctx context.Context, eventID, principalID string) error {
	return s.setFlag(attendeeKeyPrefix + eventID + ":" + principalID)
}

// IsEventAttendee reports whether the principal attends the event.
func (s *Store) IsEventAttendee(ctx context.Context, eventID, principalID string) (bool, error) {
	return s.hasFlag(attendeeKeyPrefix + eventID + ":" + principalID)
}

// Compile-time interface assertions
var (
	_ PrincipalStore   = (*Store)(nil)
	_ FileStore        = (*Store)(nil)
	_ EntitlementStore = (*Store)(nil)
	_ ProductStore     = (*Store)(nil)
	_ EventStore       = (*Store)(nil)
	_ MembershipStore  = (*Store)(nil)
)
