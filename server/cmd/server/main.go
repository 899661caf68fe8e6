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
package server

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/yomguy/servestream-sub001/pkg/auth"
	"github.com/yomguy/servestream-sub001/pkg/logger"
	"github.com/yomguy/servestream-sub001/pkg/metrics"
	"github.com/yomguy/servestream-sub001/pkg/streamdb"
	"github.com/yomguy/servestream-sub001/pkg/streamserver"
	rootCmd "github.com/yomguy/servestream-sub001/server/cmd"
)

var rebuildDB bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the stream server",
	Long:  `Start the HTTP server exposing URL resolution and the stream list.`,
	Run: func(cmd *cobra.Command, args []string) {

		cfg, err := rootCmd.LoadConfig()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		authCfg := cfg.GetAuth()
		if authCfg.SecretKey == "" {
			secret, err := auth.GenerateSecret()
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			authCfg.SecretKey = secret
			cfg.SetAuth(authCfg)
			if err := cfg.Save(); err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			logger.Info("Generated a new token signing secret")
		}

		if rebuildDB {
			if err := streamdb.Rebuild(cfg.Get().Database); err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			logger.Infof("Rebuilt database %s", cfg.Get().Database)
		}

		store, err := rootCmd.OpenStore(cfg)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
		defer store.Close()

		m, err := metrics.NewDefault()
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		s, err := streamserver.New(cfg, store, m)
		if err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}

		if err := s.Start(); err != nil {
			cmd.PrintErrln(err)
			os.Exit(1)
		}
	},
}

func init() {
	serverCmd.Flags().BoolVar(&rebuildDB, "rebuild-db", false, "recreate the database schema keeping saved streams")
	rootCmd.RootCmd.AddCommand(serverCmd)
}
