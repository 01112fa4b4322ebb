// Package app holds the application services behind the HTTP handlers.
package app

import (
	"errors"

	"viewsync/internal/hub"
)

// ErrClientNotFound reports that a targeted identity has no live session.
var ErrClientNotFound = errors.New("client not found")

// SyncService is a read-only projection over the hub for status polling,
// plus the force-sync command helpers. It never mutates registry state
// beyond issuing hub sends.
type SyncService struct {
	hub *hub.Hub
}

// NewSyncService creates the sync status reporter.
func NewSyncService(h *hub.Hub) *SyncService {
	return &SyncService{hub: h}
}

// VersionInfo answers "what version are we at" polls.
type VersionInfo struct {
	Version          int64  `json:"version"`
	LastUpdate       string `json:"lastUpdate"`
	ConnectedClients int    `json:"connectedClients"`
}

// Version returns the current data version and connection count.
func (s *SyncService) Version() VersionInfo {
	return VersionInfo{
		Version:          s.hub.Version(),
		LastUpdate:       hub.Timestamp(),
		ConnectedClients: s.hub.Count(),
	}
}

// ClientStatus is the per-client sync state.
type ClientStatus struct {
	ClientID      string `json:"clientId"`
	IsConnected   bool   `json:"isConnected"`
	LastHeartbeat string `json:"lastHeartbeat"`
	ServerVersion int64  `json:"serverVersion"`
}

// GlobalStatus is the fleet-wide sync state.
type GlobalStatus struct {
	ServerVersion    int64          `json:"serverVersion"`
	ConnectedClients []hub.Snapshot `json:"connectedClients"`
}

// Status returns the sync state for one client. Unknown identities fail
// with ErrClientNotFound.
func (s *SyncService) Status(clientID string) (ClientStatus, error) {
	session, ok := s.hub.GetClient(clientID)
	if !ok {
		return ClientStatus{}, ErrClientNotFound
	}
	return ClientStatus{
		ClientID:      clientID,
		IsConnected:   true,
		LastHeartbeat: session.LastHeartbeat(),
		ServerVersion: s.hub.Version(),
	}, nil
}

// GlobalStatusReport returns the fleet-wide view used when no client is
// named.
func (s *SyncService) GlobalStatusReport() GlobalStatus {
	return GlobalStatus{
		ServerVersion:    s.hub.Version(),
		ConnectedClients: s.hub.ListClients(),
	}
}

// ForceSync commands one client to re-fetch all content.
func (s *SyncService) ForceSync(clientID string) error {
	if _, ok := s.hub.GetClient(clientID); !ok {
		return ErrClientNotFound
	}
	s.hub.SendToClient(clientID, "command", map[string]any{
		"command":        "force_sync",
		"targetClientId": clientID,
		"params": map[string]any{
			"timestamp": hub.Timestamp(),
		},
	})
	return nil
}

// BroadcastSync commands every connected client to re-fetch all content.
func (s *SyncService) BroadcastSync() {
	s.hub.Broadcast("command", map[string]any{
		"command":        "force_sync",
		"targetClientId": "all",
		"params": map[string]any{
			"timestamp": hub.Timestamp(),
		},
	}, "")
}
