package main

import (
	"fmt"

	"github.com/brettbedarf/namefs/names"
	"github.com/spf13/cobra"
)

func newSplitCommand(a *app) *cobra.Command {
	var delim string

	cmd := &cobra.Command{
		Use:   "split <data>",
		Short: "Print the escaped components of a name",
		Long:  "Split a data string on unescaped delimiters and print one escaped component per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.delimiter(delim)
			if err != nil {
				return err
			}
			name, err := names.Parse(args[0], names.WithDelimiter(d))
			if err != nil {
				return fmt.Errorf("failed to parse name: %w", err)
			}
			for _, c := range name.Components() {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&delim, "delimiter", "d", "", "Component delimiter (default from config)")

	return cmd
}

func newJoinCommand(a *app) *cobra.Command {
	var delim string

	cmd := &cobra.Command{
		Use:   "join <component>...",
		Short: "Join components into a data string",
		Long:  "Escape each component for the delimiter and print the joined data string",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.delimiter(delim)
			if err != nil {
				return err
			}
			name, err := names.NewArrayName(args, names.WithDelimiter(d))
			if err != nil {
				return fmt.Errorf("failed to build name: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), name.AsDataString())
			return nil
		},
	}
	cmd.Flags().StringVarP(&delim, "delimiter", "d", "", "Component delimiter (default from config)")

	return cmd
}

func newConvertCommand(a *app) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "convert <data>",
		Short: "Re-delimit a name",
		Long:  "Parse a data string under one delimiter and print it re-escaped for another",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fromDelim, err := a.delimiter(from)
			if err != nil {
				return err
			}
			toDelim, err := a.delimiter(to)
			if err != nil {
				return err
			}
			src, err := names.Parse(args[0], names.WithDelimiter(fromDelim))
			if err != nil {
				return fmt.Errorf("failed to parse name: %w", err)
			}
			dst, err := names.NewArrayName(nil, names.WithDelimiter(toDelim))
			if err != nil {
				return err
			}
			out, err := dst.Concat(src)
			if err != nil {
				return fmt.Errorf("failed to convert name: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out.AsDataString())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Delimiter of the input (default from config)")
	cmd.Flags().StringVar(&to, "to", "", "Delimiter of the output (default from config)")

	return cmd
}

func newHashCommand(a *app) *cobra.Command {
	var delim string

	cmd := &cobra.Command{
		Use:   "hash <data>",
		Short: "Print the hash code of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.delimiter(delim)
			if err != nil {
				return err
			}
			name, err := names.Parse(args[0], names.WithDelimiter(d))
			if err != nil {
				return fmt.Errorf("failed to parse name: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%016x\n", name.HashCode())
			return nil
		},
	}
	cmd.Flags().StringVarP(&delim, "delimiter", "d", "", "Component delimiter (default from config)")

	return cmd
}
