package resolve

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/resolver"
	"github.com/yomguy/servestream-sub001/pkg/streamserver"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Classify a URL and print the outcome",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {

		cfg, err := rootCmd.LoadConfig()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		store, err := rootCmd.OpenStore(cfg)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer store.Close()

		r := resolver.New(store, streamserver.NewRegistry(cfg), nil, resolver.Options{
			CacheTTL:        cfg.GetCacheTTL(),
			MaxPlaylistSize: cfg.Get().MaxPlaylistSize,
		})
		out := r.Resolve(context.Background(), args[0])

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		if out.Action == resolver.ActionUndetermined {
			store.Close()
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.RootCmd.AddCommand(resolveCmd)
}
