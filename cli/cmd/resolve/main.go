package resolve

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/cli/cmd"
	restapi "github.com/yomguy/servestream-sub001/cli/cmd/rest"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Ask the server to classify a URL",
	Run: func(c *cobra.Command, args []string) {
		if len(args) != 1 {
			c.PrintErrln("Usage: servestream-cli resolve <url>")
			os.Exit(1)
		}

		err := restapi.Authenticate()
		if err != nil {
			c.PrintErrln("Error authenticating:", err)
			os.Exit(1)
		}

		resp, err := restapi.Call("POST", "/api/v1/resolve", map[string]string{"url": args[0]})
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(resp)
	},
}

func init() {
	cmd.RootCmd.AddCommand(resolveCmd)
}
