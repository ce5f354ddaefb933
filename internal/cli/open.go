package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/theme"
)

// view is the result of open.
type view struct {
	Requested string            `json:"requested" yaml:"requested"`
	Path      string            `json:"path" yaml:"path"`
	Route     string            `json:"route" yaml:"route"`
	Params    map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Resolve a view path through the route guard",
		Long:  "Navigate to a view such as /admin or /tour/42 and print where the guard lets you land.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := application.Navigate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := view{Requested: args[0], Path: m.Path, Route: m.Route.Name, Params: m.Params}
			return render(cmd, v, func(w io.Writer) {
				if v.Path != v.Requested {
					fmt.Fprintf(w, "%s -> redirected to %s (%s)\n", v.Requested, v.Path, v.Route)
				} else {
					fmt.Fprintf(w, "%s (%s)\n", v.Path, v.Route)
				}
				for k, val := range v.Params {
					fmt.Fprintf(w, "  %s = %s\n", k, val)
				}
			})
		},
	}
}

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show the display theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			printTheme(cmd.OutOrStdout(), application.Theme.Current())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch between light and dark",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := application.Theme.Toggle(cmd.Context())
			if err != nil {
				return err
			}
			printTheme(cmd.OutOrStdout(), t)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <light|dark>",
		Short: "Choose the display theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := theme.Parse(args[0])
			if !ok {
				return fmt.Errorf("unknown theme %q: want light or dark", args[0])
			}
			if err := application.Theme.Set(cmd.Context(), t); err != nil {
				return err
			}
			printTheme(cmd.OutOrStdout(), t)
			return nil
		},
	})
	return cmd
}

func printTheme(w io.Writer, t theme.Theme) {
	fmt.Fprintf(w, "%s (%s)\n", t, t.Color())
}
