package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Search players by display name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}

		platform, _ := cmd.Flags().GetString("platform")
		players, err := client.SearchPlayer(cmd.Context(), args[0], platform)
		if err != nil {
			return err
		}
		if len(players) == 0 {
			fmt.Println("No players found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tPLATFORM\tMEMBERSHIP ID\t")
		for _, p := range players {
			fmt.Fprintf(w, "%s\t%s\t%s\t\n", p.DisplayName, p.MembershipType, p.MembershipID)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addPlatformFlag(searchCmd)
}
