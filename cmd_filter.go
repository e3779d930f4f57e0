package main

import (
	"fmt"

	"github.com/bassamadnan/tmail/config"
	"github.com/spf13/cobra"
)

func newFilterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage the rules that hide messages from searches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newFilterListCmd(a),
		newFilterAddSenderCmd(a),
		newFilterAddKeywordCmd(a),
		newFilterRemoveCmd(a),
	)
	return cmd
}

func newFilterListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the current filters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.filters()
			if err != nil {
				return err
			}
			return render(cmd, "the filters in "+a.settings.FiltersFile, m.GetFilters())
		},
	}
}

func newFilterAddSenderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add-sender <sender>",
		Short:   "Hide messages whose From header contains sender",
		Args:    cobra.ExactArgs(1),
		Example: `tmail filter add-sender newsletter@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.filters()
			if err != nil {
				return err
			}
			if err := m.AddIgnoreSender(args[0]); err != nil {
				return err
			}
			a.logger.Info("filter added", "sender", args[0])
			return render(cmd, "the filters in "+a.settings.FiltersFile, m.GetFilters())
		},
	}
}

func newFilterAddKeywordCmd(a *app) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:     "add-keyword <keyword>",
		Short:   "Hide messages whose subject or body contains keyword",
		Args:    cobra.ExactArgs(1),
		Example: `tmail filter add-keyword unsubscribe --in body`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.filters()
			if err != nil {
				return err
			}
			switch in {
			case "subject":
				err = m.AddIgnoreKeywordInSubject(args[0])
			case "body":
				err = m.AddIgnoreKeywordInBody(args[0])
			default:
				return fmt.Errorf("unknown field %q, want subject or body", in)
			}
			if err != nil {
				return err
			}
			a.logger.Info("filter added", in, args[0])
			return render(cmd, "the filters in "+a.settings.FiltersFile, m.GetFilters())
		},
	}
	cmd.Flags().StringVar(&in, "in", "subject", "where to look: subject or body")
	return cmd
}

func newFilterRemoveCmd(a *app) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:     "remove <value>",
		Aliases: []string{"rm"},
		Short:   "Remove a sender or keyword filter",
		Args:    cobra.ExactArgs(1),
		Example: `tmail filter remove newsletter@example.com --kind sender`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.filters()
			if err != nil {
				return err
			}
			if err := removeFilter(m, kind, args[0]); err != nil {
				return err
			}
			a.logger.Info("filter removed", kind, args[0])
			return render(cmd, "the filters in "+a.settings.FiltersFile, m.GetFilters())
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "sender", "filter kind: sender, subject or body")
	return cmd
}

func removeFilter(m *config.Manager, kind, value string) error {
	switch kind {
	case "sender":
		return m.RemoveIgnoreSender(value)
	case "subject":
		return m.RemoveIgnoreKeywordInSubject(value)
	case "body":
		return m.RemoveIgnoreKeywordInBody(value)
	}
	return fmt.Errorf("unknown filter kind %q, want sender, subject or body", kind)
}
