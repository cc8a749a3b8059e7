// Package api provides the HTTP API server: health, knowledge search,
// document upload and deletion, conversation inspection, and the inbound
// message webhook.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string
}
