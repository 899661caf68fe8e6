package backup

import (
	"github.com/spf13/cobra"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore the saved streams",
}

func init() {
	rootCmd.RootCmd.AddCommand(backupCmd)
}
