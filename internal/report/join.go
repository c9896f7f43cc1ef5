package report

import "github.com/adlens/insight/internal/models"

// UnknownClientName labels seller rows whose clientId has no match in the
// client collection.
const UnknownClientName = "Unknown Client"

// ClientIndex maps clientId to display name. Build it once per client fetch;
// the entity aggregator may resolve thousands of records against it.
type ClientIndex map[string]string

// NewClientIndex builds the id-to-name mapping from the raw client list.
func NewClientIndex(clients []models.Client) ClientIndex {
	ix := make(ClientIndex, len(clients))
	for _, c := range clients {
		if c.ClientID != "" {
			ix[c.ClientID] = c.ClientName
		}
	}
	return ix
}

// Name resolves a clientId, falling back to UnknownClientName on a miss.
func (ix ClientIndex) Name(clientID string) string {
	if name, ok := ix[clientID]; ok && name != "" {
		return name
	}
	return UnknownClientName
}
