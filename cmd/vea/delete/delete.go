// Package deletecmder provides the delete command for removing documents
// from every backend via the Vea Connect API.
package deletecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/dfernandezmOnesec/vea-connect-go/api"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/cliui"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/config"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/deletion"
	"github.com/dfernandezmOnesec/vea-connect-go/pkg/logger"
)

type deleteCommander struct {
	documentID string
	blobKey    string

	apiTarget string

	debug  bool
	logger *slog.Logger
}

const deleteLongDesc string = `Delete a document from every backend.

Asks a running Vea Connect API server to remove the document's blob from the
durable store, its cached entries from the fast cache, and its chunk
embeddings from the vector index. Each backend is reported separately, so a
partial failure shows exactly which copies remain.

Deleting an identifier that no backend holds succeeds: the goal state is
absence, and absent already counts.

At least one of --document-id or --blob-key is required.

Example:
  vea delete --document-id faq-2024
  vea delete --document-id faq-2024 --blob-key documents/faq-2024.txt
  vea delete --blob-key documents/orphaned.txt`

const deleteShortDesc string = "Delete a document from all backends"

func NewDeleteCmd() *cobra.Command {
	cmder := &deleteCommander{}

	cmd := &cobra.Command{
		Use:   "delete",
		Short: deleteShortDesc,
		Long:  deleteLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.documentID == "" && cmder.blobKey == "" {
				return fmt.Errorf("at least one of --document-id or --blob-key is required")
			}

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVar(&cmder.documentID, "document-id", "", "Document ID to delete")
	cmd.Flags().StringVar(&cmder.blobKey, "blob-key", "", "Blob key to delete from the durable store")
	cmd.Flags().StringVar(&cmder.apiTarget, "api-target", defaults.Client.APITarget, "Vea Connect API server URL")

	return cmd
}

func (c *deleteCommander) run() error {
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	c.logger.Debug("deleting document",
		"document_id", c.documentID,
		"blob_key", c.blobKey,
		"api_target", c.apiTarget,
	)

	output, err := DeleteAPI(c.apiTarget, c.documentID, c.blobKey)
	if err != nil {
		return err
	}

	name := c.documentID
	if name == "" {
		name = c.blobKey
	}

	fmt.Printf("\n  %s %s\n\n", cliui.Mark(resultErr(output)), output.Message)
	printBackend("blob store", output.DeletionDetails.BlobDeleted, output.DeletionDetails.Errors, deletion.BackendBlob)
	printBackend("cache", output.DeletionDetails.CacheDeleted, output.DeletionDetails.Errors, deletion.BackendCache)
	printBackend("embeddings", output.DeletionDetails.EmbeddingsDeleted, output.DeletionDetails.Errors, deletion.BackendEmbeddings)
	fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%s at %s", name, output.Timestamp)))

	if !output.Success {
		return fmt.Errorf("document partially deleted")
	}
	return nil
}

func resultErr(output *api.DeleteResponse) error {
	if output.Success {
		return nil
	}
	return fmt.Errorf("partial failure")
}

func printBackend(label string, deleted bool, errs []deletion.BackendError, backend string) {
	if deleted {
		fmt.Printf("    %s %s\n", cliui.SuccessMark, label)
		return
	}

	for _, e := range errs {
		if e.Backend == backend {
			fmt.Printf("    %s %s: %s\n", cliui.FailMark, label, e.Message)
			return
		}
	}

	fmt.Printf("    %s %s\n", cliui.FailMark, label)
}

// DeleteAPI calls the document deletion endpoint and returns the parsed
// response. Partial failures come back as a response, not an error, so
// callers can report per-backend outcomes.
func DeleteAPI(apiTarget, documentID, blobKey string) (*api.DeleteResponse, error) {
	deleteURL, err := url.Parse(apiTarget)
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	deleteURL.Path = "/v1/documents"

	payload, err := json.Marshal(deletion.Request{
		DocumentID: documentID,
		BlobKey:    blobKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding delete request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, deleteURL.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating delete request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Vea Connect API at %s: %w", apiTarget, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var output api.DeleteResponse
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("delete request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	if output.Message == "" {
		return nil, fmt.Errorf("delete request failed (HTTP %d): %s", resp.StatusCode, string(body))
	}

	return &output, nil
}
