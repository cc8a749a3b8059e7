// Package acs implements the messenger on the Azure Communication Services
// advanced messaging REST API, which fronts WhatsApp business channels.
package acs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dfernandezmOnesec/vea-connect-go/pkg/messenger"
)

const (
	apiVersion     = "2024-02-01"
	defaultTimeout = 30 * time.Second
)

// Config holds configuration for the ACS messenger.
type Config struct {
	// Endpoint is the ACS resource endpoint, e.g.
	// https://my-resource.communication.azure.com.
	Endpoint string

	// AccessToken authenticates requests against the resource.
	AccessToken string

	// ChannelRegistrationID identifies the WhatsApp channel registration.
	ChannelRegistrationID string
}

// Messenger sends text messages through an ACS WhatsApp channel.
type Messenger struct {
	endpoint  string
	token     string
	channelID string
	client    *http.Client
}

// NewMessenger creates an ACS-backed messenger.
func NewMessenger(cfg Config) (*Messenger, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("acs endpoint is required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("acs access token is required")
	}
	if cfg.ChannelRegistrationID == "" {
		return nil, fmt.Errorf("acs channel registration id is required")
	}

	return &Messenger{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		token:     cfg.AccessToken,
		channelID: cfg.ChannelRegistrationID,
		client:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

type sendRequest struct {
	ChannelRegistrationID string      `json:"channelRegistrationId"`
	To                    []string    `json:"to"`
	Content               textContent `json:"content"`
}

type textContent struct {
	Kind string `json:"kind"`
	Text string `json:"content"`
}

// SendText delivers a plain text message to the given phone number.
func (m *Messenger) SendText(ctx context.Context, to string, text string) error {
	body, err := json.Marshal(sendRequest{
		ChannelRegistrationID: m.channelID,
		To:                    []string{to},
		Content: textContent{
			Kind: "text",
			Text: text,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling send request: %w", err)
	}

	url := fmt.Sprintf("%s/messages/notifications:send?api-version=%s", m.endpoint, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("acs send returned status %d: %s", resp.StatusCode, string(detail))
	}

	return nil
}

// Close releases resources held by the messenger.
func (m *Messenger) Close() error {
	m.client.CloseIdleConnections()
	return nil
}

var _ messenger.Messenger = (*Messenger)(nil)
