package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <arxiv-ref>",
		Short: "Fetch an arXiv paper and print it as a library record",
		Long:  "Fetch an arXiv paper by URL, arXiv:<id> or bare identifier and print the resulting library record as YAML. The output can be saved into a --library file.",
		Args:  cobra.ExactArgs(1),
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

			client, err := buildImporter(cfg, logger)
			if err != nil {
				return err
			}
			paper, err := client.Import(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(paper); err != nil {
				return fmt.Errorf("encode paper: %w", err)
			}
			return enc.Close()
		},
	}
}
