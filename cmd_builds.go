package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"racedesk/layout"
	"racedesk/publisher"
	"racedesk/store"
)

func newBuildsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List, show and duplicate saved builds",
	}
	cmd.AddCommand(newBuildsListCmd(), newBuildsShowCmd(), newBuildsDuplicateCmd())
	return cmd
}

func openBuilds() (*store.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.Path)
}

func newBuildsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved builds, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			builds, err := openBuilds()
			if err != nil {
				return err
			}
			defer builds.Close()

			all, err := builds.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tMODEL\tUPDATED")
			for _, b := range all {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Model, b.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newBuildsShowCmd() *cobra.Command {
	var format, override string
	cmd := &cobra.Command{
		Use:   "show <build-id>",
		Short: "Render a saved build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o, err := layout.ParseOverride(override)
			if err != nil {
				return err
			}
			builds, err := openBuilds()
			if err != nil {
				return err
			}
			defer builds.Close()

			b, err := builds.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "pretty" {
				return renderPretty(cmd.OutOrStdout(), b.Document)
			}
			f, err := publisher.ParseFormat(format)
			if err != nil {
				return err
			}
			data, err := publisher.Render(b.Document, layout.Resolve(b.Document.Body, o), f)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "output format (pretty, markdown, html, json, yaml)")
	cmd.Flags().StringVar(&override, "layout", "auto", "template override")
	return cmd
}

func newBuildsDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <build-id>",
		Short: "Copy a saved build under a new name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			builds, err := openBuilds()
			if err != nil {
				return err
			}
			defer builds.Close()

			b, err := builds.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.ID, b.Name)
			return nil
		},
	}
}
