package streams

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	restapi "github.com/yomguy/servestream-sub001/cli/cmd/rest"
)

func init() {
	streamsCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved streams",
	Run: func(cmd *cobra.Command, args []string) {

		err := restapi.Authenticate()
		if err != nil {
			cmd.PrintErrln("Error authenticating:", err)
			os.Exit(1)
		}

		resp, err := restapi.Call("GET", "/api/v1/streams", nil)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(resp)
	},
}
