package main

import (
	"time"

	"github.com/spf13/cobra"
)

var browseOpts searchOptions

var browseCmd = &cobra.Command{
	Use:   "browse [parent] [child...]",
	Short: "Search and browse the results interactively",
	Long: `browse runs a search and opens the results in a terminal browser:
enter reads an item, ctrl+f refines the list, ctrl+o opens the link,
ctrl+e exports the visible results and ctrl+r runs the search again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(envOptions{noCache: browseOpts.noCache, refresh: browseOpts.refresh})
		if err != nil {
			return err
		}
		defer e.Close()

		req, err := browseOpts.buildRequest(cmd, e, args, time.Now())
		if err != nil {
			return err
		}
		return runBrowser(e, req)
	},
}

func init() {
	browseOpts.bindQuery(browseCmd)
}
