// Package configcmder provides the config command for managing persistent
// vea configuration stored in the .veaconnect/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent vea configuration.

Configuration is stored as config.toml in the .veaconnect/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen, client.api_target,
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  cache.provider, cache.redis_url,
  vector_store.provider, vector_store.target,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.target, llm.model, llm.max_tokens,
  conversation.active_window, conversation.context_ttl, conversation.state_ttl,
  rag.top_k, rag.embedding_ttl, deletion.backend_timeout,
  messenger.endpoint, messenger.channel_id,
  events.provider, events.brokers, events.topic,
  ingest.workers, ingest.queue_size, ingest.chunk_size, ingest.overlap

Use subcommands to get, set, or list configuration values:
  vea config set <key> <value>    Set a configuration value
  vea config get <key>            Get a configuration value
  vea config list                 List all configuration values

Examples:
  vea config set cache.provider redis
  vea config set cache.redis_url redis://localhost:6379/0
  vea config get embedding.model
  vea config list`

const configShortDesc string = "Manage persistent vea configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
