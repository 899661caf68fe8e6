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
package streams

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/streamserver"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

var nickname string

func init() {
	addCmd.Flags().StringVarP(&nickname, "nickname", "n", "", "display name of the stream")
	streamsCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a stream",
	Run: func(cmd *cobra.Command, args []string) {

		if len(args) != 1 {
			cmd.PrintErrln("Usage: servestream streams add <url> [--nickname name]")
			os.Exit(1)
		}

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

		t, u, err := streamserver.NewRegistry(cfg).Parse(args[0])
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		rec, created, err := store.FindOrCreate(context.Background(), t.SelectionArgs(u), func() *streamdb.StreamRecord {
			rec := t.NewStreamRecord(u)
			if nickname != "" {
				rec.Nickname = nickname
			}
			return rec
		})
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		if created {
			cmd.Printf("Stream %d added\n", rec.ID)
		} else {
			cmd.Printf("Stream already saved as %d\n", rec.ID)
		}
	},
}
