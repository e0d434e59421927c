package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/display"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/spf13/cobra"
)

// itemCmd represents the item command
var itemCmd = &cobra.Command{
	Use:   "item <name> <slot>",
	Short: "Show the item a player has equipped in a slot",
	Long:  "Show the item a player has equipped in a slot. Slots: " + strings.Join(destiny.SlotNames(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, ok := destiny.SlotBucket(args[1])
		if !ok {
			return fmt.Errorf("unknown slot %q, use one of: %s", args[1], strings.Join(destiny.SlotNames(), ", "))
		}
		outputFlags, _ := cmd.Flags().GetString("output")
		if err := display.ValidateFlags(outputFlags); err != nil {
			return err
		}

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
		equipped, ok := ch.EquippedIn(bucket)
		if !ok || equipped.ItemInstanceID == "" {
			return fmt.Errorf("%s has nothing equipped in %s", player.DisplayName, args[1])
		}

		item, err := client.ItemDetails(cmd.Context(), player.MembershipType, player.MembershipID, equipped.ItemInstanceID)
		if err != nil {
			var rerr *items.ResolutionError
			if errors.As(err, &rerr) {
				return fmt.Errorf("couldn't load item info: %w", err)
			}
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(item)
		}
		return display.PrintItem(os.Stdout, item, outputFlags)
	},
}

func init() {
	rootCmd.AddCommand(itemCmd)
	addPlatformFlag(itemCmd)
	itemCmd.Flags().Bool("json", false, "Print the item as JSON")
	itemCmd.Flags().StringP("output", "o", display.DEFAULT_ITEM_FLAGS, "Sections to print: n (name), p (perks), m (mod, masterwork), s (stats), o (objectives)")
}
