package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/gnemet/listview"
	"github.com/gnemet/listview/internal/viewdef"
)

type viewOptions struct {
	groups     []string
	fields     []string
	sort       string
	desc       bool
	search     string
	definition string
	output     string
}

var viewOpts viewOptions

var viewCmd = &cobra.Command{
	Use:   "view <items.json>",
	Short: "Print the grouped, sorted and filtered view of an item file",
	Long: `Reads a JSON array of items and prints the resulting view.

Examples:
  listview view tasks.json --group Status:desc --group AssignedTo.Title
  listview view tasks.json --def views/tasks.yaml --sort Title --search "^fix"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		items, err := listview.ParseItems(data)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		v, err := buildView(items, viewOpts)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), v, viewOpts.output)
	},
}

func init() {
	f := viewCmd.Flags()
	f.StringArrayVarP(&viewOpts.groups, "group", "g", nil, "group by field[:asc|desc], outermost first; repeatable or comma separated")
	f.StringSliceVar(&viewOpts.fields, "fields", nil, "columns to show (default: every flattened key)")
	f.StringVarP(&viewOpts.sort, "sort", "s", "", "sort column")
	f.BoolVar(&viewOpts.desc, "desc", false, "sort descending")
	f.StringVar(&viewOpts.search, "search", "", "case-insensitive filter expression")
	f.StringVar(&viewOpts.definition, "def", "", "view definition file (JSON or YAML)")
	f.StringVarP(&viewOpts.output, "output", "o", "text", "output format: text or json")
}

func buildView(items []listview.Item, opts viewOptions) (*listview.View, error) {
	var props listview.Props
	if opts.definition != "" {
		def, err := viewdef.Load(opts.definition)
		if err != nil {
			return nil, err
		}
		props = def.Props(items)
	} else {
		props = listview.Props{Items: items, ShowFilter: true}
	}

	if len(opts.fields) > 0 {
		props.ViewFields = nil
		for _, name := range opts.fields {
			props.ViewFields = append(props.ViewFields, listview.ViewField{Name: name, Sorting: true})
		}
	}
	if len(props.ViewFields) == 0 {
		for _, key := range flattenedKeys(items) {
			props.ViewFields = append(props.ViewFields, listview.ViewField{Name: key, Sorting: true})
		}
	}

	if len(opts.groups) > 0 {
		specs, err := listview.ParseGroupSpecs(opts.groups)
		if err != nil {
			return nil, err
		}
		props.GroupByFields = specs
	}
	if err := listview.ValidateGroupSpecs(props.GroupByFields, flattenedKeys(items)); err != nil {
		return nil, err
	}

	if opts.search != "" {
		props.ShowFilter = true
	}

	v, err := listview.NewView(props)
	if err != nil {
		return nil, err
	}
	if opts.sort != "" && !v.SortBy(opts.sort, opts.desc) {
		return nil, fmt.Errorf("%w: column %q is not sortable", listview.ErrInvalidArgument, opts.sort)
	}
	v.SetFilter(opts.search)
	slog.Debug("Built view", "items", len(items), "columns", len(v.Columns()), "groups", len(props.GroupByFields))
	return v, nil
}

// flattenedKeys lists the keys of all flattened items in sorted order.
func flattenedKeys(items []listview.Item) []string {
	seen := map[string]bool{}
	var keys []string
	for _, it := range listview.FlattenAll(items) {
		for k := range it {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

func render(w io.Writer, v *listview.View, format string) error {
	visible := v.Visible()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"items":   visible.Items,
			"groups":  visible.Groups,
			"columns": v.Columns(),
		})
	case "text":
		return renderText(w, v.Columns(), visible)
	}
	return fmt.Errorf("%w: output format %q", listview.ErrInvalidArgument, format)
}

func renderText(w io.Writer, columns []listview.Column, g listview.Grouping) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	var header []string
	var keys []string
	for _, c := range columns {
		if c.IconOnly {
			continue
		}
		name := c.Name
		if c.IsSorted {
			if c.IsSortedDescending {
				name += " ↓"
			} else {
				name += " ↑"
			}
		}
		header = append(header, name)
		keys = append(keys, c.Key)
	}
	if len(keys) == 0 {
		return nil
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	row := func(it listview.FlatItem, indent int) {
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = it[k].Text()
		}
		cells[0] = strings.Repeat("  ", indent) + cells[0]
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	var walk func(groups []*listview.Group)
	walk = func(groups []*listview.Group) {
		for _, grp := range groups {
			fmt.Fprintf(tw, "%s%s (%d)\t\n", strings.Repeat("  ", grp.Level), grp.Name, grp.Count)
			if len(grp.Children) > 0 {
				walk(grp.Children)
				continue
			}
			for _, it := range g.Items[grp.StartIndex : grp.StartIndex+grp.Count] {
				row(it, grp.Level+1)
			}
		}
	}

	if len(g.Groups) == 0 {
		for _, it := range g.Items {
			row(it, 0)
		}
	} else {
		walk(g.Groups)
	}
	return tw.Flush()
}
