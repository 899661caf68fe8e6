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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	restapi "github.com/yomguy/servestream-sub001/cli/cmd/rest"
)

var nickname string

func init() {
	addCmd.Flags().StringVarP(&nickname, "nickname", "n", "", "display name of the stream")
	streamsCmd.AddCommand(addCmd)
	streamsCmd.AddCommand(removeCmd)
}

var addCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Save a stream on the server",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			cmd.PrintErrln("Usage: servestream-cli streams add <url> [--nickname name]")
			os.Exit(1)
		}

		err := restapi.Authenticate()
		if err != nil {
			cmd.PrintErrln("Error authenticating:", err)
			os.Exit(1)
		}

		body := map[string]string{"url": args[0]}
		if nickname != "" {
			body["nickname"] = nickname
		}
		resp, err := restapi.Call("POST", "/api/v1/streams", body)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(resp)
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a saved stream",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			cmd.PrintErrln("Usage: servestream-cli streams remove <id>")
			os.Exit(1)
		}

		err := restapi.Authenticate()
		if err != nil {
			cmd.PrintErrln("Error authenticating:", err)
			os.Exit(1)
		}

		_, err = restapi.Call("DELETE", fmt.Sprintf("/api/v1/streams/%s", args[0]), nil)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println("Stream removed")
	},
}
