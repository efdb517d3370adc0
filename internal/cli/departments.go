package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nsrz/intranet/internal/orgtree"
)

func newDepartmentsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "departments",
		Aliases: []string{"dept"},
		Short:   "Inspect the department hierarchy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tree",
		Short: "Print the hierarchy as an indented tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.openServices(cmd.Context())
			if err != nil {
				return err
			}
			roots, err := svc.departments.Tree(cmd.Context())
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				fmt.Fprintln(rt.out, "no departments")
				return nil
			}
			renderTree(rt.out, roots)
			return nil
		},
	})
	return cmd
}

var levelColors = []*color.Color{
	color.New(color.FgHiBlue, color.Bold),
	color.New(color.FgHiGreen),
	color.New(color.FgYellow),
	color.New(color.FgCyan),
}

func renderTree(w io.Writer, roots []*orgtree.TreeNode) {
	for _, root := range roots {
		renderNode(w, root, "", true, true)
	}
}

func renderNode(w io.Writer, n *orgtree.TreeNode, prefix string, last, root bool) {
	c := levelColors[n.Level%len(levelColors)]
	label := c.Sprint(n.Name) + color.New(color.FgHiBlack).Sprintf(" #%d", n.ID)

	childPrefix := prefix
	if root {
		fmt.Fprintln(w, label)
	} else {
		branch := "├── "
		if last {
			branch = "└── "
		}
		fmt.Fprintln(w, prefix+branch+label)
		if last {
			childPrefix += "    "
		} else {
			childPrefix += "│   "
		}
	}
	for i, child := range n.Children {
		renderNode(w, child, childPrefix, i == len(n.Children)-1, false)
	}
}
