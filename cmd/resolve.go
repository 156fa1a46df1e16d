package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inkpress/vellum/api"
	"github.com/inkpress/vellum/internal/render"
)

var resolveFilters []string

func init() {
	resolveCmd.Flags().StringSliceVar(&resolveFilters, "filter", nil,
		"filter to apply to the page title, name[:arg] (repeatable)")
	rootCmd.AddCommand(resolveCmd)
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <route> [config.yaml]",
	Short: "Resolve a route in the newest revision and print what it serves",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(args[1:])
		if err != nil {
			return err
		}
		st, cache, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		resolver := &api.Resolver{Store: st, Cache: cache}
		res, err := resolver.Resolve(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Revision %d, kind %d, source %s\n", res.Revision, res.Route.Kind, res.Route.Path)
		if res.Page != nil {
			title, err := applyFilters(render.Stock(), res.Page.Title, resolveFilters)
			if err != nil {
				return err
			}
			fmt.Printf("Title: %s\nDate: %s\n", title, res.Page.Date)
			_, err = os.Stdout.Write(res.Body[res.Page.ContentOffset:])
			return err
		}
		if res.DiskPath != "" {
			fmt.Printf("Cached at %s\n", res.DiskPath)
			return nil
		}
		_, err = os.Stdout.Write(res.Body)
		return err
	},
}

// applyFilters runs name[:arg] filter specs over value in order.
func applyFilters(reg *render.Registry, value string, specs []string) (string, error) {
	for _, spec := range specs {
		name, arg, hasArg := strings.Cut(spec, ":")
		f, ok := reg.Lookup(name)
		if !ok {
			return "", fmt.Errorf("unknown filter %q", name)
		}
		var args []string
		if hasArg {
			args = []string{arg}
		}
		out, err := f.Apply(value, args...)
		if err != nil {
			return "", err
		}
		value = out
	}
	return value, nil
}
