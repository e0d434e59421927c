package cmd

import (
	"encoding/json"
	"os"

	"github.com/ghostwire/ghostbot/pkg/display"
	"github.com/spf13/cobra"
)

// loadoutCmd represents the loadout command
var loadoutCmd = &cobra.Command{
	Use:   "loadout <name>",
	Short: "Show the equipment of a player's most recently played character",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}

		player, err := findPlayer(cmd, client, args[0])
		if err != nil {
			return err
		}

		ch, err := client.ActiveCharacterWithEquipment(cmd.Context(), player.MembershipType, player.MembershipID)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ch)
		}
		display.PrintLoadout(os.Stdout, ch, client.Store())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadoutCmd)
	addPlatformFlag(loadoutCmd)
	loadoutCmd.Flags().Bool("json", false, "Print the character as JSON")
}
