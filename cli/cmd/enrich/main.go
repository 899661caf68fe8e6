package enrich

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/cli/cmd"
	restapi "github.com/yomguy/servestream-sub001/cli/cmd/rest"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich [job-id]",
	Short: "Start a metadata enrichment job, or show the state of one",
	Run: func(c *cobra.Command, args []string) {

		err := restapi.Authenticate()
		if err != nil {
			c.PrintErrln("Error authenticating:", err)
			os.Exit(1)
		}

		var resp string
		if len(args) == 1 {
			resp, err = restapi.Call("GET", "/api/v1/enrich/"+args[0], nil)
		} else {
			resp, err = restapi.Call("POST", "/api/v1/enrich", nil)
		}
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(resp)
	},
}

func init() {
	cmd.RootCmd.AddCommand(enrichCmd)
}
