package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"warranty-copilot/internal/intents"
	"warranty-copilot/internal/shared/config"
)

func newIntentsCmd(load func() config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "intents",
		Short: "Inspect the topic intents catalog",
	}
	cmd.AddCommand(newIntentsValidateCmd(load), newIntentsRankCmd(load))
	return cmd
}

func loadCatalog(cmd *cobra.Command, load func() config.Config) (intents.Catalog, error) {
	cfg := load()
	objects, err := openObjects(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return intents.Loader{Store: objects, Key: cfg.IntentsKey}.Load(cmd.Context())
}

func newIntentsValidateCmd(load func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Decode the catalog and list visible intents per copilot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(cmd, load)
			if err != nil {
				return err
			}
			copilots := make([]string, 0, len(catalog))
			for name := range catalog {
				copilots = append(copilots, name)
			}
			sort.Strings(copilots)
			for _, name := range copilots {
				visible := 0
				for _, intent := range catalog[name].Topics {
					if intent.Visible() {
						visible++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d intents, %d visible\n", name, len(catalog[name].Topics), visible)
			}
			return nil
		},
	}
}

func newIntentsRankCmd(load func() config.Config) *cobra.Command {
	q := intents.Query{}
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank a JSON list of category scores read from stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := loadCatalog(cmd, load)
			if err != nil {
				return err
			}
			var scores []intents.Score
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&scores); err != nil {
				return fmt.Errorf("decode scores: %w", err)
			}
			options, err := catalog.Rank(scores, q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(options)
		},
	}
	cmd.Flags().StringVar(&q.Copilot, "copilot", intents.DefaultCopilot, "copilot section")
	cmd.Flags().StringVar(&q.Subtopic, "subtopic", "", "only intents tagged with this subtopic")
	cmd.Flags().IntVar(&q.Limit, "limit", intents.DefaultLimit, "maximum options")
	return cmd
}
