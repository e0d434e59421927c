package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// manifestCmd represents the manifest command
var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Load the item catalog and print its table sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}
		store := client.Store()

		fmt.Println("Manifest:", store.URL())
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "TABLE\tROWS\t")
		for _, c := range store.Counts() {
			fmt.Fprintf(w, "%s\t%d\t\n", c.Table, c.Count)
		}
		return w.Flush()
	},
}

// manifestLookupCmd represents the manifest lookup command
var manifestLookupCmd = &cobra.Command{
	Use:   "lookup <table> <hash>",
	Short: "Print the raw definition of a hash",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid hash %q", args[1])
		}

		client, err := newBungieClient(cmd)
		if err != nil {
			return err
		}

		raw := client.Store().Lookup(args[0], hash)
		if raw == nil {
			return fmt.Errorf("no %s with hash %d", args[0], hash)
		}

		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return err
		}
		fmt.Println(out.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestLookupCmd)
}
