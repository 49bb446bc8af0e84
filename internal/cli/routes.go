package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/procedure"
	"github.com/bjaus/procedure/internal/demo"
)

// Route is one line of the routes listing.
type Route struct {
	Path string `json:"path" yaml:"path"`
	Kind string `json:"kind" yaml:"kind"`
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "routes",
		Short:         "List the procedures served by procd",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := demo.NewRouter(demo.NewStore())
			if err != nil {
				return err
			}
			return writeRoutes(cmd.OutOrStdout(), rootOpts.Format, r.Table())
		},
	}
}

// Routes lists the paths of t in order.
func Routes(t *procedure.Table) []Route {
	paths := t.Paths()
	out := make([]Route, 0, len(paths))
	for _, path := range paths {
		p, _ := t.Lookup(path)
		out = append(out, Route{Path: path, Kind: p.Kind().String()})
	}
	return out
}

func writeRoutes(w io.Writer, format string, t *procedure.Table) error {
	routes := Routes(t)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(routes); err != nil {
			return err
		}
		return enc.Close()
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPATH")
	for _, r := range routes {
		fmt.Fprintf(tw, "%s\t%s\n", r.Kind, r.Path)
	}
	return tw.Flush()
}
