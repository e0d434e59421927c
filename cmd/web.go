package cmd

import (
	"github.com/ghostwire/ghostbot/internal/server"
	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// webCmd represents the web command
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Serve stats, clip matches and item lookups as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := dbPathFor(cmd)
		if err != nil {
			return err
		}

		db, err := openShared(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		var game server.Game
		if viper.GetString("bungie.apikey") != "" {
			client, err := newBungieClient(cmd)
			if err != nil {
				return err
			}
			game = client
		} else {
			utils.Log.Warn("bungie.apikey not set, player endpoints are disabled")
		}

		user, _ := cmd.Flags().GetString("username")
		pass, _ := cmd.Flags().GetString("password")
		addr, _ := cmd.Flags().GetString("bind")

		return server.New(db, game, user, pass).Start(cmd.Context(), addr)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)

	webCmd.Flags().StringP("bind", "b", ":9999", "Address to bind the server to")
	webCmd.Flags().StringP("username", "u", "", "Username for basic auth (optional)")
	webCmd.Flags().StringP("password", "P", "", "Password for basic auth (optional)")
	webCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default db.path or ~/.config/ghostbot/ghostbot.sqlite)")
}
