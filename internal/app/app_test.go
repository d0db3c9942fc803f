package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sheetdb/internal/audit"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
	_ "github.com/JonMunkholm/sheetdb/internal/core/collections"
)

func TestOpenStore_SQLite(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: "SQLite", SQLitePath: ":memory:"}}

	store, err := OpenStore(cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "sqlite (:memory:)", store.Describe())

	engine := core.NewEngine(store)
	assert.Equal(t, "sqlite (:memory:)", engine.Backend())

	all, err := engine.GetAll(context.Background(), core.Productos)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenStore_Sheets(t *testing.T) {
	cfg := &config.Config{
		Store: config.StoreConfig{Backend: config.BackendSheets, SpreadsheetID: "sheet-123", ConnectionTTL: time.Minute},
	}

	store, err := OpenStore(cfg)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
	assert.Equal(t, "sheets", store.Describe())

	cfg.Store.SpreadsheetID = ""
	_, err = OpenStore(cfg)
	assert.Error(t, err)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := OpenStore(&config.Config{Store: config.StoreConfig{Backend: "excel"}})
	assert.ErrorContains(t, err, "excel")
}

func TestCredentialSource(t *testing.T) {
	src := CredentialSource(config.CredentialsConfig{
		ClientEmail:        "svc@example.iam.gserviceaccount.com",
		PrivateKey:         "key",
		ServiceAccountJSON: "{}",
		ServiceAccountFile: "sa.json",
	})
	assert.Equal(t, "svc@example.iam.gserviceaccount.com", src.ClientEmail)
	assert.Equal(t, "key", src.PrivateKey)
	assert.Equal(t, "{}", src.ServiceAccountJSON)
	assert.Equal(t, "sa.json", src.ServiceAccountFile)
}

func TestNewRecorder_LogOnly(t *testing.T) {
	rec, closeFn, err := NewRecorder(context.Background(), &config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer closeFn()

	require.Len(t, rec, 1)
	assert.IsType(t, &audit.LogRecorder{}, rec[0])
	assert.Nil(t, rec.Postgres())
}

func TestNewRecorder_BadURL(t *testing.T) {
	cfg := &config.Config{Audit: config.AuditConfig{URL: "://not a url", MaxConns: 1}}
	_, _, err := NewRecorder(context.Background(), cfg, slog.Default())
	assert.ErrorContains(t, err, "parse audit database URL")
}
