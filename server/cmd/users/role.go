package users

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	usersCmd.AddCommand(roleCmd)
}

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "Change the role of a user",
	Run: func(cmd *cobra.Command, args []string) {

		if len(args) != 2 {
			cmd.PrintErrln("Usage: servestream users role <username> <admin|viewer>")
			os.Exit(1)
		}

		users, err := loadUsers()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		if err := users.SetRole(args[0], args[1]); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		cmd.Println("Role changed")
		os.Exit(0)
	},
}
