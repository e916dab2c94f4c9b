package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/swabox/swabox/core/plugin"
)

// pluginsCmd reports the state of the plugin directory
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List installed plugins and any that fail to load.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		registry := plugin.Load(configuration.Fs(), configuration.PluginDir)
		defer registry.Close()

		w := cmd.OutOrStdout()
		tw := tabwriter.NewWriter(w, 8, 8, 4, ' ', 0)
		fmt.Fprintf(tw, "NAME\tDESCRIPTION\n")
		for _, name := range registry.Names() {
			handle, _ := registry.Lookup(name)
			fmt.Fprintf(tw, "%s\t%s\n", name, handle.Short())
		}
		tw.Flush()

		if errs := registry.Errors(); len(errs) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Failed to load:")
			for _, loadErr := range errs {
				fmt.Fprintf(w, "  %v\n", loadErr)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
