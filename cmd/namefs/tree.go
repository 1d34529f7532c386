package main

import (
	"fmt"
	"slices"

	"github.com/brettbedarf/namefs/filesystem"
	"github.com/brettbedarf/namefs/internal/util"
	"github.com/brettbedarf/namefs/requests"
	"github.com/brettbedarf/namefs/sources"
	"github.com/spf13/cobra"
)

// buildTree loads node definitions and applies them to a new tree. Requests
// that fail are logged and skipped, as when mounting a nodes file.
func (a *app) buildTree(nodesFile string) (*filesystem.Tree, error) {
	logger := util.GetLogger("tree")

	reqs, err := requests.LoadFile(nodesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load nodes: %w", err)
	}
	tree, err := filesystem.NewTree(a.cfg, filesystem.WithSourceProvider(sources.NewDefaultRegistry()))
	if err != nil {
		return nil, err
	}

	added := 0
	for i := range reqs {
		if _, err := tree.Apply(&reqs[i]); err != nil {
			logger.Error().Err(err).Str("path", reqs[i].Path).Msg("Failed to add node")
			continue
		}
		added++
	}
	logger.Info().Int("nodes", added).Int("requests", len(reqs)).Msg("Built tree")
	return tree, nil
}

func newTreeCommand(a *app) *cobra.Command {
	var find string

	cmd := &cobra.Command{
		Use:   "tree <nodes-file>",
		Short: "Build a node tree and print its full names",
		Long: `Load node definitions from a YAML or JSON file, build the tree and print
the full name of every node, or only of the nodes named by --find.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.buildTree(args[0])
			if err != nil {
				return err
			}

			var lines []string
			if find != "" {
				set, err := tree.Root().FindNodes(find)
				if err != nil {
					return err
				}
				for _, n := range set {
					lines = append(lines, describe(n))
				}
				slices.Sort(lines)
			} else {
				tree.Walk(func(n filesystem.Node) bool {
					if n != filesystem.Node(tree.Root()) {
						lines = append(lines, describe(n))
					}
					return true
				})
			}
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&find, "find", "", "Only print nodes with this base name")

	return cmd
}

func newCatCommand(a *app) *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "cat <nodes-file> <path>",
		Short: "Read the start of a file node",
		Long: `Build the tree from a nodes file, open the file at path (following links)
and print up to --bytes bytes read from its source.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := a.buildTree(args[0])
			if err != nil {
				return err
			}
			n, err := tree.ResolvePath(args[1])
			if err != nil {
				return err
			}
			for {
				l, ok := n.(*filesystem.Link)
				if !ok {
					break
				}
				if n, err = l.Target(); err != nil {
					return err
				}
			}
			f, ok := n.(*filesystem.File)
			if !ok {
				return fmt.Errorf("%s is not a file", args[1])
			}

			if err := f.Open(); err != nil {
				return err
			}
			defer f.Close() // nolint:errcheck
			data, err := f.Read(size)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().IntVarP(&size, "bytes", "n", 64, "Maximum number of bytes to read")

	return cmd
}

// describe renders a node's full name; link lines also show the target
func describe(n filesystem.Node) string {
	name, err := n.FullName()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", n.ID(), err)
	}
	l, ok := n.(*filesystem.Link)
	if !ok {
		return name.AsDataString()
	}
	target, err := l.Target()
	if err != nil {
		return fmt.Sprintf("%s -> <%v>", name.AsDataString(), err)
	}
	targetName, err := target.FullName()
	if err != nil {
		return fmt.Sprintf("%s -> <%v>", name.AsDataString(), err)
	}
	return fmt.Sprintf("%s -> %s", name.AsDataString(), targetName.AsDataString())
}
