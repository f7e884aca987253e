package catalog

import (
	"context"
	"testing"

	"github.com/printcraft/order-workflow-api/internal/repository"
	"github.com/printcraft/order-workflow-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory settings store
type fakeStore struct {
	values map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string][]byte)}
}

func (f *fakeStore) GetSetting(ctx context.Context, key string) ([]byte, error) {
	value, ok := f.values[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return value, nil
}

func (f *fakeStore) PutSetting(ctx context.Context, key string, value []byte) error {
	f.values[key] = value
	return nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return NewService(store, logger.NewLogger("error")), store
}

func keys(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestEntriesFallsBackToDefaults(t *testing.T) {
	svc, _ := newTestService()

	entries, err := svc.Entries(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"printing", "lamination", "foiling", "die_cutting", "binding", "packing"},
		keys(entries))
}

func TestEntriesEmptyPersistedListFallsBackToDefaults(t *testing.T) {
	svc, store := newTestService()
	store.values[SettingKey] = []byte(`[]`)

	entries, err := svc.Entries(context.Background())
	require.NoError(t, err)

	assert.Len(t, entries, len(DefaultEntries()))
}

func TestEntriesPersistedListWins(t *testing.T) {
	svc, store := newTestService()
	store.values[SettingKey] = []byte(`[
		{"key":"embossing","label":"Embossing","order":2},
		{"key":"printing","label":"Printing","order":1}
	]`)

	entries, err := svc.Entries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"printing", "embossing"}, keys(entries))
}

func TestDefaultSequence(t *testing.T) {
	svc, _ := newTestService()

	sequence, err := svc.DefaultSequence(context.Background())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"printing", "lamination", "foiling", "die_cutting", "binding", "packing"},
		sequence)
}

func TestAddStage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entries, err := svc.Add(ctx, Entry{Key: "embossing", Label: "Embossing"})
	require.NoError(t, err)

	// Auto-assigned order puts the new stage last
	assert.Equal(t, "embossing", entries[len(entries)-1].Key)
	assert.Equal(t, 7, entries[len(entries)-1].Order)

	// Survives a reload
	reloaded, err := svc.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, reloaded, 7)
}

func TestAddStageRejectsDuplicateKey(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), Entry{Key: "printing", Label: "Printing Again"})
	assert.Error(t, err)
}

func TestAddStageRejectsEmptyKey(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Add(context.Background(), Entry{Label: "Nameless"})
	assert.Error(t, err)
}

func TestRemoveStage(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entries, err := svc.Remove(ctx, "foiling")
	require.NoError(t, err)

	assert.NotContains(t, keys(entries), "foiling")
	assert.Len(t, entries, 5)
}

func TestRemoveUnknownStage(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Remove(context.Background(), "embossing")
	assert.Error(t, err)
}

func TestReplaceCatalog(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	entries, err := svc.Replace(ctx, []Entry{
		{Key: "cutting", Label: "Cutting", Order: 2},
		{Key: "printing", Label: "Printing", Order: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"printing", "cutting"}, keys(entries))
}

func TestLabelResolvesRemovedKeysToRawKey(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	assert.Equal(t, "Foiling", svc.Label(ctx, "foiling"))

	_, err := svc.Remove(ctx, "foiling")
	require.NoError(t, err)

	// Items may still carry the removed key in their frozen sequence
	assert.Equal(t, "foiling", svc.Label(ctx, "foiling"))
}
