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
package backup

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/backup"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

func init() {
	backupCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write the saved streams as a backup file, or to stdout",
	Args:  cobra.MaximumNArgs(1),
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

		recs, err := store.List(context.Background())
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		var out io.Writer = cmd.OutOrStdout()
		if len(args) == 1 {
			file, err := os.Create(args[0])
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			defer file.Close()
			out = file
		}

		if err := backup.Export(out, recs); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
	},
}
