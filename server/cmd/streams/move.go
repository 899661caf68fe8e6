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
	"strconv"

	"github.com/spf13/cobra"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

func init() {
	streamsCmd.AddCommand(moveCmd)
}

var moveCmd = &cobra.Command{
	Use:   "move <id> <position>",
	Short: "Move a saved stream to a zero-based list position",
	Run: func(cmd *cobra.Command, args []string) {

		if len(args) != 2 {
			cmd.PrintErrln("Usage: servestream streams move <id> <position>")
			os.Exit(1)
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		position, err := strconv.Atoi(args[1])
		if err != nil {
			cmd.PrintErrln(err)
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

		if err := store.Move(context.Background(), id, position); err != nil {
			cmd.PrintErrln(err)
			store.Close()
			os.Exit(1)
		}
		cmd.Println("Stream moved")
	},
}
