package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cppla/matlog/routes"
	"github.com/cppla/matlog/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API (graceful restart on SIGUSR2)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("tls-cert", "", "TLS certificate file")
	serveCmd.Flags().String("tls-key", "", "TLS key file")
}

func runServe(cmd *cobra.Command) error {
	rt, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	r := routes.SetupRouter(rt.db, rt.svc)

	// pending leaderboard writes are dropped once the server has drained
	closeServices := func() {
		if err := rt.svc.Close(); err != nil {
			utils.Sugar.Warnf("closing services: %v", err)
		}
		_ = utils.Logger.Sync()
	}

	addr := ":" + rt.cfg.AppPort
	cert, _ := cmd.Flags().GetString("tls-cert")
	key, _ := cmd.Flags().GetString("tls-key")
	if cert != "" && key != "" {
		utils.Sugar.Infof("Starting server on port %s (graceful, tls)", rt.cfg.AppPort)
		return utils.GraceServerTLS(addr, cert, key, r, closeServices)
	}
	utils.Sugar.Infof("Starting server on port %s (graceful)", rt.cfg.AppPort)
	return utils.GraceServer(addr, r, closeServices)
}
