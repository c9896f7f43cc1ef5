package dashboard

import (
	"time"

	"github.com/adlens/insight/internal/models"
)

// ConnectionStatus classifies how recently a client last checked in.
type ConnectionStatus string

const (
	StatusOK      ConnectionStatus = "ok"      // handshake under an hour ago
	StatusStale   ConnectionStatus = "stale"   // handshake within the last day
	StatusOffline ConnectionStatus = "offline" // older than a day, or never seen
)

// ClassifyHandshake maps a lastHandshake timestamp to a connection status.
// A zero timestamp means the client has never connected.
func ClassifyHandshake(last time.Time, now time.Time) ConnectionStatus {
	if last.IsZero() {
		return StatusOffline
	}
	age := now.Sub(last)
	switch {
	case age < time.Hour:
		return StatusOK
	case age < 24*time.Hour:
		return StatusStale
	default:
		return StatusOffline
	}
}

// ClientInfo is a client record decorated with its connection status.
type ClientInfo struct {
	ClientID      string           `json:"clientId"`
	ClientName    string           `json:"clientName"`
	LastHandshake *time.Time       `json:"lastHandshake,omitempty"`
	Status        ConnectionStatus `json:"status"`
}

func buildClientInfo(clients []models.Client, now time.Time) []ClientInfo {
	out := make([]ClientInfo, 0, len(clients))
	for _, c := range clients {
		info := ClientInfo{
			ClientID:   c.ClientID,
			ClientName: c.ClientName,
			Status:     ClassifyHandshake(c.LastHandshake.Time, now),
		}
		if !c.LastHandshake.IsZero() {
			t := c.LastHandshake.Time
			info.LastHandshake = &t
		}
		out = append(out, info)
	}
	return out
}
