package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "Show which configured models the API key can reach",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.log.Sync()

			rep := a.agent.Invoker().Health(cmd.Context())
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(rep); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
