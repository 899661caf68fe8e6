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
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/backup"
	"github.com/yomguy/servestream-sub001/pkg/streamserver"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

func init() {
	backupCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore streams from a backup file",
	Run: func(cmd *cobra.Command, args []string) {

		if len(args) != 1 {
			cmd.PrintErrln("Usage: servestream backup import <file>")
			os.Exit(1)
		}

		cfg, err := rootCmd.LoadConfig()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		file, err := os.Open(args[0])
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer file.Close()

		store, err := rootCmd.OpenStore(cfg)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer store.Close()

		report, err := backup.Restore(context.Background(), store, streamserver.NewRegistry(cfg), file)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		cmd.Printf("%d restored, %d already saved, %d invalid\n", report.Restored, report.Skipped, report.Invalid)
	},
}
