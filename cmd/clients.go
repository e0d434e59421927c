package cmd

import (
	"errors"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/manifest"
	"github.com/ghostwire/ghostbot/pkg/storage"
	"github.com/ghostwire/ghostbot/pkg/twitch"
	"github.com/ghostwire/ghostbot/pkg/whttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newHTTPClient(cmd *cobra.Command) (*whttp.Client, error) {
	proxy, _ := cmd.Flags().GetString("proxy")
	return whttp.NewClient(whttp.Options{
		Timeout: time.Duration(viper.GetInt("http.timeout")) * time.Second,
		Proxy:   proxy,
	})
}

// newBungieClient builds the game API client and loads the catalog.
func newBungieClient(cmd *cobra.Command) (*bungie.Client, error) {
	apiKey := viper.GetString("bungie.apikey")
	if apiKey == "" {
		return nil, errors.New("bungie.apikey not found in config")
	}

	hc, err := newHTTPClient(cmd)
	if err != nil {
		return nil, err
	}

	var opts []manifest.Option
	if dir := viper.GetString("manifest.cachedir"); dir != "" {
		opts = append(opts, manifest.WithCacheDir(dir))
	}

	return bungie.NewClient(cmd.Context(), bungie.Config{
		APIKey: apiKey,
		HTTP:   hc,
		Store:  manifest.NewStore(hc, opts...),
	})
}

func newTwitchClient(cmd *cobra.Command) (*twitch.Client, error) {
	hc, err := newHTTPClient(cmd)
	if err != nil {
		return nil, err
	}
	return twitch.NewClient(twitch.Config{
		ClientID:     viper.GetString("twitch.clientid"),
		ClientSecret: viper.GetString("twitch.clientsecret"),
		HTTP:         hc,
	})
}

// openDB opens the database under an exclusive file lock. The returned
// function closes the database and releases the lock.
func openDB(cmd *cobra.Command) (*storage.DB, func(), error) {
	dbPath, err := dbPathFor(cmd)
	if err != nil {
		return nil, nil, err
	}

	lock, err := utils.NewFileLock(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, nil, err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		lock.Unlock()
		return nil, nil, err
	}
	return db, func() {
		db.Close()
		if err := lock.Unlock(); err != nil {
			utils.Log.Warn(err)
		}
	}, nil
}

// openShared opens the database for a long-lived reader. Open may create or
// migrate the schema, so it runs under the file lock; the lock is released
// once the schema is in place and scans keep writing while the handle lives.
func openShared(dbPath string) (*storage.DB, error) {
	lock, err := utils.NewFileLock(dbPath)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			utils.Log.Warn(err)
		}
	}()
	return storage.Open(dbPath)
}

func dbPathFor(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("dbpath")
	if p == "" {
		p = viper.GetString("db.path")
	}
	return utils.GetAbsDBPath(p)
}

// findPlayer resolves a display name to a single player.
func findPlayer(cmd *cobra.Command, client *bungie.Client, name string) (*bungie.Player, error) {
	platform, _ := cmd.Flags().GetString("platform")
	players, err := client.SearchPlayer(cmd.Context(), name, platform)
	if err != nil {
		return nil, err
	}
	switch len(players) {
	case 0:
		return nil, errors.New("no player found with that name")
	case 1:
		return &players[0], nil
	}

	// Cross saved accounts show up once per platform.
	utils.Log.Infof("%d players match %q, using the %s one. Pass --platform to pick another.",
		len(players), name, players[0].MembershipType)
	return &players[0], nil
}

func addPlatformFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("platform", "p", "", "Platform to search: xbox, playstation, steam, battlenet, stadia (default all)")
}
