// Package sync contains the cloud collaborators: an opt-in push/pull client
// for a hosted Postgres-style REST backend and a one-way Google Sheets
// exporter. Sync is strictly an observer of the history store; local records
// always win conflicts and a sync failure never breaks local tracking.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pagetrail/pagetrail/internal/kv"
)

// Session identifies this installation to the sync backend. It replaces the
// in-process global client/token the feature historically grew around: every
// collaborator receives a Session explicitly.
type Session struct {
	// ClientID namespaces this installation's rows in the shared backend
	// table. Generated once and persisted.
	ClientID string

	// Token is the bearer credential for the backend or the Sheets API.
	// Supplied from the environment, never persisted.
	Token string
}

// NewSession loads (or creates and persists) the client id and pairs it with
// the given token.
func NewSession(ctx context.Context, kvs kv.Store, token string) (Session, error) {
	id, err := clientID(ctx, kvs)
	if err != nil {
		return Session{}, err
	}
	return Session{ClientID: id, Token: token}, nil
}

// clientID returns the persisted installation id, minting one on first use.
func clientID(ctx context.Context, kvs kv.Store) (string, error) {
	data, err := kvs.Get(ctx, kv.KeyClientID)
	if err == nil && len(data) > 0 {
		return string(data), nil
	}
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return "", fmt.Errorf("read client id: %w", err)
	}

	id := uuid.NewString()
	if err := kvs.Put(ctx, kv.KeyClientID, []byte(id)); err != nil {
		return "", fmt.Errorf("persist client id: %w", err)
	}
	return id, nil
}

// Flag is the persisted "sync enabled" switch, stored under its own
// well-known key. Only sync collaborators consult it; the core never does.
type Flag struct {
	kv kv.Store
}

// NewFlag creates a Flag over the given kv store.
func NewFlag(kvs kv.Store) *Flag {
	return &Flag{kv: kvs}
}

// Enabled reports whether sync is switched on. Faults read as disabled.
func (f *Flag) Enabled(ctx context.Context) bool {
	data, err := f.kv.Get(ctx, kv.KeySyncEnabled)
	if err != nil {
		return false
	}
	return string(data) == "true"
}

// Set switches sync on or off.
func (f *Flag) Set(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return f.kv.Put(ctx, kv.KeySyncEnabled, []byte(value))
}
