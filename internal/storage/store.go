// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// =============================================================================
// KEYS
// =============================================================================

// Keys used by parley.
const (
	KeyAccessToken        = "access_token"
	KeyRefreshToken       = "refresh_token"
	KeyTokenType          = "token_type"
	KeyUserID             = "user_id"
	KeyPlan               = "user_plan"
	KeySentCount          = "total_messages_sent"
	KeyRecentActivity     = "recent_activity"
	KeyTotalConversations = "total_conversations"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is a synchronous, durable string-keyed store.
// Writes are last-writer-wins per key.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)

	// Set stores value under key. It returns once the value is durable.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error

	// Close releases resources. Further calls return ErrClosed.
	Close() error
}

// ErrClosed is returned by a Store used after Close.
var ErrClosed = errors.New("storage: store is closed")

// =============================================================================
// BACKEND SELECTION
// =============================================================================

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open opens the named backend at path. An empty path selects the default
// location under ~/.parley for the backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile, "":
		if path == "" {
			p, err := defaultPath("store.json")
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenFile(path)
	case BackendSQLite:
		if path == "" {
			p, err := defaultPath("store.db")
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", backend)
	}
}

func defaultPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: resolve home directory: %w", err)
	}
	return filepath.Join(home, ".parley", name), nil
}
