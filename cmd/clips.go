package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/clips"
	"github.com/ghostwire/ghostbot/pkg/display"
	"github.com/ghostwire/ghostbot/pkg/storage"
	"github.com/spf13/cobra"
)

// clipsCmd represents the clips command
var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "Find registered players' activities in their Twitch broadcasts",
}

// clipsRegisterCmd represents the clips register command
var clipsRegisterCmd = &cobra.Command{
	Use:   "register <name> <twitch-login>",
	Short: "Link a player to a Twitch channel",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}
		player, err := findPlayer(cmd, client, args[0])
		if err != nil {
			return err
		}

		tc, err := newTwitchClient(cmd)
		if err != nil {
			return err
		}
		user, err := tc.User(cmd.Context(), args[1])
		if err != nil {
			return err
		}

		db, done, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer done()

		if _, err := db.UpsertMember(cmd.Context(), storage.Member{
			MembershipType: player.MembershipType,
			MembershipID:   player.MembershipID,
			DisplayName:    player.DisplayName,
			TwitchLogin:    user.Login,
			TwitchUserID:   user.ID,
		}); err != nil {
			return err
		}
		fmt.Printf("Registered %s (%s) with twitch.tv/%s\n", player.DisplayName, player.MembershipType, user.Login)
		return nil
	},
}

// clipsScanCmd represents the clips scan command
var clipsScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Match new activities of registered players against their broadcasts",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetInt("interval")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		history, _ := cmd.Flags().GetInt("history")

		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}
		tc, err := newTwitchClient(cmd)
		if err != nil {
			return err
		}

		for {
			if err := runScan(cmd, clips.Config{
				Activities:  client,
				Videos:      tc,
				Names:       client.Store(),
				Concurrency: concurrency,
				History:     history,
				Log:         utils.Log,
				OnMatch: func(_ storage.Member, m storage.ClipMatch) {
					display.PrintClipMatch(os.Stdout, m)
				},
			}); err != nil {
				return err
			}

			if interval <= 0 {
				return nil
			}
			utils.Log.Infof("Waiting %d minutes until the next scan...", interval)
			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(time.Duration(interval) * time.Minute):
			}
		}
	},
}

func runScan(cmd *cobra.Command, cfg clips.Config) error {
	db, done, err := openDB(cmd)
	if err != nil {
		return err
	}
	defer done()
	cfg.DB = db

	members, err := db.ListMembers(cmd.Context(), true)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		utils.Log.Info("No registered players with a Twitch channel.")
		return nil
	}

	res, err := clips.Scan(cmd.Context(), cfg, members)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		utils.Log.Warn(e)
	}
	utils.Log.Infof("Scanned %d players: %d new activities, %d checked, %d matches",
		res.Members, res.NewActivities, res.Scanned, len(res.Matches))
	return nil
}

// clipsListCmd represents the clips list command
var clipsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded clip matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, _ := cmd.Flags().GetString("since")
		limit, _ := cmd.Flags().GetInt("limit")

		opts := storage.ListOptions{Limit: limit}
		if since != "" {
			t, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since, use RFC3339: %w", err)
			}
			opts.Since = t
		}

		db, done, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer done()

		matches, err := db.ListClipMatches(cmd.Context(), opts)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No clip matches.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, strings.Join([]string{"STARTED", "PLAYER", "ACTIVITY", "DURATION", "LINK"}, "\t"))
		for _, m := range matches {
			display.PrintClipMatch(w, m)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(clipsCmd)
	clipsCmd.AddCommand(clipsRegisterCmd)
	clipsCmd.AddCommand(clipsScanCmd)
	clipsCmd.AddCommand(clipsListCmd)
	clipsCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default db.path or ~/.config/ghostbot/ghostbot.sqlite)")

	addPlatformFlag(clipsRegisterCmd)

	clipsScanCmd.Flags().Int("interval", 0, "Minutes between scans (0 scans once)")
	clipsScanCmd.Flags().Int("concurrency", 5, "Players scanned at once")
	clipsScanCmd.Flags().Int("history", 25, "Activities fetched per player")

	clipsListCmd.Flags().String("since", "", "Only matches recorded after this RFC3339 timestamp")
	clipsListCmd.Flags().Int("limit", 50, "Maximum number of matches")
}
