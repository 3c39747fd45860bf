package main

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/render"
	"zweigbib/internal/router"
)

var (
	searchCategory string
	searchLanguage string
	searchYear     string
	searchPeriod   string
	searchLimit    int
	routeDispatch  bool
)

var routeCmd = &cobra.Command{
	Use:   "route <token>",
	Short: "Parse a navigation token",
	Long: `Parse a navigation token and print the route it names. With --dispatch
the dataset is loaded and the resulting view is rendered as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.ParseToken(args[0])
		if err := printJSON(cmd.OutOrStdout(), r.Describe()); err != nil {
			return err
		}
		if !routeDispatch {
			return nil
		}
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return renderDirective(cmd.OutOrStdout(), router.Dispatch(r, store))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search entries by text and filters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		filters := bibliography.Filters{
			bibliography.FilterCategory:   searchCategory,
			bibliography.FilterLanguage:   searchLanguage,
			bibliography.FilterYear:       searchYear,
			bibliography.FilterTimePeriod: searchPeriod,
		}
		entries := store.SearchEntries(query, filters)
		if searchLimit > 0 && len(entries) > searchLimit {
			entries = entries[:searchLimit]
		}
		return render.NewText(cmd.OutOrStdout()).Render(router.Directive{Kind: router.KindList, Entries: entries})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <page_id>",
	Short: "Show one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return renderDirective(cmd.OutOrStdout(), router.Dispatch(router.DetailRoute(args[0]), store))
	},
}

var facetsCmd = &cobra.Command{
	Use:   "facets",
	Short: "Print the dashboard summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		return renderDirective(cmd.OutOrStdout(), router.Dispatch(router.DashboardRoute(), store))
	},
}

func init() {
	routeCmd.Flags().BoolVar(&routeDispatch, "dispatch", false, "load the dataset and render the view")

	searchCmd.Flags().StringVar(&searchCategory, "category", "", "exact main category")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "exact language")
	searchCmd.Flags().StringVar(&searchYear, "year", "", "publication year")
	searchCmd.Flags().StringVar(&searchPeriod, "period", "", "exact time period")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum entries to print (0 for all)")

	rootCmd.AddCommand(routeCmd, searchCmd, showCmd, facetsCmd)
}

// renderDirective prints d and turns an error directive into an error.
func renderDirective(w io.Writer, d router.Directive) error {
	if d.Kind == router.KindError {
		return errors.New(d.Message)
	}
	return render.NewText(w).Render(d)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseYearArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("year must be a number")
	}
	return n, nil
}
