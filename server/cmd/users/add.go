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
package users

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/auth"
)

var role string

func init() {
	addCmd.Flags().StringVarP(&role, "role", "r", auth.RoleViewer, "role of the user (admin or viewer)")
	usersCmd.AddCommand(addCmd)
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new user",
	Run: func(cmd *cobra.Command, args []string) {

		if len(args) != 2 {
			cmd.PrintErrln("Usage: servestream users add <username> <password> [--role admin|viewer]")
			os.Exit(1)
		}

		users, err := loadUsers()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		err = users.AddUser(args[0], args[1], role)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		cmd.Println("User added")
		os.Exit(0)
	},
}
