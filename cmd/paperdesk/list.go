package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const statusColumnWidth = 12

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List the library, optionally filtered by title or abstract",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			repo, err := buildRepository(cfg, logger)
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			matches := repo.Filter(query)

			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "no papers match %q\n", query)
				return nil
			}
			idWidth := 0
			for _, p := range matches {
				if len(p.ID) > idWidth {
					idWidth = len(p.ID)
				}
			}
			for _, p := range matches {
				line := fmt.Sprintf("%-*s  %-*s  %s", idWidth, p.ID, statusColumnWidth, p.Status, p.Title)
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}
			return nil
		},
	}
}
