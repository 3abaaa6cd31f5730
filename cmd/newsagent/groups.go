package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/pders01/newsagent/internal/config"
	"github.com/pders01/newsagent/internal/groups"
	"github.com/pders01/newsagent/internal/tui"
)

var groupsVerbose bool

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List the feed groups available to search",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		registry, err := groups.LoadRegistry(cfg.Groups.File)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderGroups(registry.Groups(), groupsVerbose))
		return nil
	},
}

func init() {
	groupsCmd.Flags().BoolVarP(&groupsVerbose, "verbose", "v", false, "List every feed of every group")
}

func renderGroups(gs []groups.Group, verbose bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tui.SeparatorStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Inherit(tui.HeaderStyle)
			}
			return s
		})

	if !verbose {
		t = t.Headers("Group", "Feeds")
		for _, g := range gs {
			t = t.Row(g.Name, strconv.Itoa(len(g.Feeds)))
		}
		return t.Render()
	}

	t = t.Headers("Group", "Feed", "URL")
	for _, g := range gs {
		for _, f := range g.Feeds {
			t = t.Row(g.Name, f.Label(), f.URL)
		}
	}
	return t.Render()
}
