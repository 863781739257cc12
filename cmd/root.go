package cmd

import (
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/matlog/analytics"
	"github.com/cppla/matlog/config"
	"github.com/cppla/matlog/models"
	"github.com/cppla/matlog/services"
	"github.com/cppla/matlog/utils"
)

var rootCmd = &cobra.Command{
	Use:   "matlog",
	Short: "Gamified training log backend",
	Long:  "matlog serves the training log API: session scoring, avatars, badges, group leaderboards and shoutbox.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a JSON or YAML config file (default config/config.json)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(rebuildCmd)
}

type app struct {
	cfg config.AppConfig
	db  *gorm.DB
	svc *services.Services
}

// bootstrap loads configuration, the logger, the database and the services.
func bootstrap(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg := config.LoadFrom(path)

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		return nil, err
	}

	db := config.InitDatabase(models.All()...)
	tracker := analytics.FromConfig(db, cfg)
	return &app{cfg: cfg, db: db, svc: services.New(db, cfg, tracker)}, nil
}
