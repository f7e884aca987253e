package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/printcraft/order-workflow-api/internal/repository"
	apperrors "github.com/printcraft/order-workflow-api/pkg/errors"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

// SettingKey is the settings-store key holding the admin-edited stage list
const SettingKey = "production_stages"

// Entry is one production substage in the catalog
type Entry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Order int    `json:"order"`
}

// DefaultEntries is the compiled-in stage list used until an admin
// overrides it
func DefaultEntries() []Entry {
	return []Entry{
		{Key: "printing", Label: "Printing", Order: 1},
		{Key: "lamination", Label: "Lamination", Order: 2},
		{Key: "foiling", Label: "Foiling", Order: 3},
		{Key: "die_cutting", Label: "Die Cutting", Order: 4},
		{Key: "binding", Label: "Binding", Order: 5},
		{Key: "packing", Label: "Packing", Order: 6},
	}
}

// Store is the keyed settings store the catalog persists to
type Store interface {
	GetSetting(ctx context.Context, key string) ([]byte, error)
	PutSetting(ctx context.Context, key string, value []byte) error
}

// Service resolves the ordered production stage list. The persisted
// list wins whenever it is non-empty; otherwise the compiled-in
// defaults apply. Items snapshot their own sequence at assignment time,
// so catalog edits never rewrite existing items.
type Service struct {
	store  Store
	logger logger.Logger
}

// NewService creates a catalog service backed by the given store
func NewService(store Store, logger logger.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Entries returns the current stage list sorted by display order
func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	raw, err := s.store.GetSetting(ctx, SettingKey)

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return sorted(DefaultEntries()), nil
		}
		return nil, fmt.Errorf("failed to load stage catalog: %w", err)
	}

	var entries []Entry

	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode stage catalog: %w", err)
	}

	if len(entries) == 0 {
		return sorted(DefaultEntries()), nil
	}

	return sorted(entries), nil
}

// DefaultSequence returns the catalog keys in display order, used when
// an item is sent to production without a custom sequence
func (s *Service) DefaultSequence(ctx context.Context) ([]string, error) {
	entries, err := s.Entries(ctx)

	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(entries))

	for _, e := range entries {
		keys = append(keys, e.Key)
	}

	return keys, nil
}

// Label resolves a substage key to its display label. Keys no longer
// present in the catalog resolve to the raw key; items may legitimately
// reference stages an admin has since removed.
func (s *Service) Label(ctx context.Context, key string) string {
	entries, err := s.Entries(ctx)

	if err != nil {
		s.logger.Warn("Failed to resolve substage label", "error", err, "key", key)
		return key
	}

	for _, e := range entries {
		if e.Key == key {
			return e.Label
		}
	}

	return key
}

// Add appends a stage to the catalog. Duplicate keys are rejected.
func (s *Service) Add(ctx context.Context, entry Entry) ([]Entry, error) {
	entries, err := s.Entries(ctx)

	if err != nil {
		return nil, err
	}

	if entry.Key == "" {
		return nil, apperrors.NewInvalidInputError("stage key is required")
	}

	for _, e := range entries {
		if e.Key == entry.Key {
			return nil, apperrors.NewInvalidInputError(fmt.Sprintf("stage %q already exists", entry.Key))
		}
	}

	if entry.Order == 0 {
		entry.Order = nextOrder(entries)
	}

	entries = append(entries, entry)

	if err := s.persist(ctx, entries); err != nil {
		return nil, err
	}

	s.logger.Info("Production stage added", "key", entry.Key, "order", entry.Order)
	return sorted(entries), nil
}

// Remove filters a stage out of the catalog. Sequences on existing
// items are left untouched; the sequencer tolerates unknown keys.
func (s *Service) Remove(ctx context.Context, key string) ([]Entry, error) {
	entries, err := s.Entries(ctx)

	if err != nil {
		return nil, err
	}

	kept := make([]Entry, 0, len(entries))

	for _, e := range entries {
		if e.Key != key {
			kept = append(kept, e)
		}
	}

	if len(kept) == len(entries) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("stage %q not found", key))
	}

	if err := s.persist(ctx, kept); err != nil {
		return nil, err
	}

	s.logger.Info("Production stage removed", "key", key)
	return sorted(kept), nil
}

// Replace overwrites the whole catalog with the given list
func (s *Service) Replace(ctx context.Context, entries []Entry) ([]Entry, error) {
	for _, e := range entries {
		if e.Key == "" {
			return nil, apperrors.NewInvalidInputError("stage key is required")
		}
	}

	if err := s.persist(ctx, entries); err != nil {
		return nil, err
	}

	s.logger.Info("Production stage catalog replaced", "count", len(entries))
	return sorted(entries), nil
}

func (s *Service) persist(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)

	if err != nil {
		return fmt.Errorf("failed to encode stage catalog: %w", err)
	}

	if err := s.store.PutSetting(ctx, SettingKey, raw); err != nil {
		return fmt.Errorf("failed to persist stage catalog: %w", err)
	}

	return nil
}

func sorted(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Order < entries[j].Order
	})
	return entries
}

func nextOrder(entries []Entry) int {
	max := 0

	for _, e := range entries {
		if e.Order > max {
			max = e.Order
		}
	}

	return max + 1
}
