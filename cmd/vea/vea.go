// Package veacmder
package veacmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/vea/config"
	deletecmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/vea/delete"
	searchcmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/vea/search"
	servecmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/vea/serve"
	versioncmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/version"
)

const veaLongDesc string = `Vea Connect is a conversational context and knowledge cache manager.

It keeps per-conversation history across a fast cache and a durable store,
serves semantic search over cached knowledge embeddings, and orchestrates
document deletion across every backend that holds a copy.

Run the server using:
  vea serve            Run the API server and message bot

Query a running server using:
  vea search <query>   Semantic search over indexed documents
  vea delete           Delete a document from all backends`

const veaShortDesc string = "Vea Connect - Conversational Context Manager"

func NewVeaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vea",
		Short: veaShortDesc,
		Long:  veaLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing .veaconnect/ (default: walk up from cwd, then home)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(deletecmder.NewDeleteCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
