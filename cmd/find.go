package cmd

import (
	"github.com/agentic-research/jarjar/internal/depfind"
	"github.com/agentic-research/jarjar/internal/logging"
	"github.com/spf13/cobra"
)

var findJSON bool

func init() {
	findCmd.Flags().BoolVar(&findJSON, "json", false, "Print the dependencies as JSON")
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(stringsCmd)
}

var findCmd = &cobra.Command{
	Use:   "find <class|jar> <cp1> [cp2]",
	Short: "List the dependencies of classes on cp1 upon classes on cp2",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := depfind.ParseLevel(args[0])
		if err != nil {
			return err
		}
		cp1, err := absClasspath(args[1])
		if err != nil {
			return err
		}
		cp2 := ""
		if len(args) == 3 {
			if cp2, err = absClasspath(args[2]); err != nil {
				return err
			}
		}

		deps, err := depfind.Find(hostFS(), level, cp1, cp2, logging.Component("find"))
		if err != nil {
			return err
		}
		if findJSON {
			return depfind.WriteJSON(cmd.OutOrStdout(), level, deps)
		}
		return depfind.WriteText(cmd.OutOrStdout(), deps)
	},
}

var stringsCmd = &cobra.Command{
	Use:   "strings <cp>",
	Short: "Print the string constants of every class on a classpath",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, err := absClasspath(args[0])
		if err != nil {
			return err
		}
		return depfind.Strings(hostFS(), cp, cmd.OutOrStdout(), logging.Component("strings"))
	},
}
