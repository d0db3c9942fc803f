// Package app wires configuration into the store connector and the audit
// recorder shared by the server and sheetctl.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/sheetdb/internal/audit"
	"github.com/JonMunkholm/sheetdb/internal/backend/sheets"
	"github.com/JonMunkholm/sheetdb/internal/backend/sqlite"
	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

// Store is an opened connector with its release function.
type Store struct {
	core.Connector
	close func() error
}

// Close releases the backend.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Describe names the backend.
func (s *Store) Describe() string {
	if d, ok := s.Connector.(core.Describer); ok {
		return d.Describe()
	}
	return ""
}

// OpenStore opens the backend selected by cfg.Store.
func OpenStore(cfg *config.Config) (*Store, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case config.BackendSheets:
		conn, err := sheets.New(cfg.Store.SpreadsheetID, CredentialSource(cfg.Credentials),
			sheets.WithTTL(cfg.Store.ConnectionTTL))
		if err != nil {
			return nil, err
		}
		return &Store{Connector: conn}, nil

	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Connector: store, close: store.Close}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// CredentialSource maps the credential settings onto the Sheets backend.
func CredentialSource(c config.CredentialsConfig) sheets.CredentialSource {
	return sheets.CredentialSource{
		ClientEmail:        c.ClientEmail,
		PrivateKey:         c.PrivateKey,
		ServiceAccountJSON: c.ServiceAccountJSON,
		ServiceAccountFile: c.ServiceAccountFile,
	}
}

// NewRecorder builds the audit trail: the structured log always, plus
// PostgreSQL when cfg.Audit has a URL. The returned func closes the pool.
func NewRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (audit.Multi, func(), error) {
	recorders := audit.Multi{audit.NewLogRecorder(logger)}
	if !cfg.Audit.AuditEnabled() {
		return recorders, func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Audit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse audit database URL: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Audit.MaxConns)
	poolConfig.MinConns = int32(cfg.Audit.MinConns)
	poolConfig.MaxConnLifetime = cfg.Audit.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connect audit database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping audit database: %w", err)
	}

	pg := audit.NewPostgresRecorder(pool)
	if err := pg.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	logger.Info("audit trail stored in postgres", "max_conns", cfg.Audit.MaxConns)
	return append(recorders, pg), pool.Close, nil
}
