/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package enrich

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/streamserver"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Read tags of known media files and store them",
	Long: `Fetch the head of every known media file and store the title, artist
and album found in its tags. Interrupting stops after the current file.`,
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

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e := streamserver.NewEnricher(cfg, store, streamserver.NewRegistry(cfg), nil)
		res, err := e.RunAll(ctx)
		cmd.Printf("%d updated, %d without tags, %d failed\n", res.Updated, res.Empty, res.Failed)
		if err != nil {
			cmd.PrintErrln(err)
			store.Close()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.RootCmd.AddCommand(enrichCmd)
}
