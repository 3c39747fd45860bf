package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"zweigbib/internal/bibliography"
	"zweigbib/internal/render"
	"zweigbib/internal/router"
)

var browseToken string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the bibliography interactively",
	Long: `Browse the bibliography interactively. Type "help" at the prompt for the
list of commands; any navigation token (view=...) is accepted as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, cmd.ErrOrStderr())
		store := newStore(cfg)
		s := newSession(store, cmd.OutOrStdout(), logger, browseToken)

		s.controller.ShowLoading(true)
		if err := store.Load(cmd.Context(), cfg.Source); err != nil {
			return err
		}
		return s.run(cmd.Context(), cmd.InOrStdin())
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseToken, "token", "", "navigation token to open once loaded")
	rootCmd.AddCommand(browseCmd)
}

const browseHelp = `Commands:
  home                 dashboard
  list                 all entries
  search <text>        full-text search
  category <name>      entries in a category
  language <name>      entries in a language
  year <year>          entries from a year
  period <name>        entries from a time period
  show <page_id>       one entry
  back                 previous view
  refresh              show the current view again
  view=...             any navigation token
  quit                 leave
`

// session wires a terminal renderer, a history stack and a controller the
// way the browser wires the DOM, the location hash and the router.
type session struct {
	out        io.Writer
	history    *router.History
	controller *router.Controller
}

func newSession(store *bibliography.Store, out io.Writer, logger *slog.Logger, token string) *session {
	text := render.NewText(out)
	hist := router.NewHistory(token)
	c := router.NewController(store, text, hist, logger)
	hist.OnChange(c.HandleToken)
	c.Attach(store)
	return &session{out: out, history: hist, controller: c}
}

func (s *session) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(s.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.exec(strings.TrimSpace(sc.Text())); quit {
			return nil
		}
	}
}

// exec runs one prompt line and reports whether the session should end.
func (s *session) exec(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	c := s.controller

	switch strings.ToLower(cmd) {
	case "":
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(s.out, browseHelp)
	case "home", "dashboard":
		c.NavigateToDashboard()
	case "list":
		c.Navigate(router.ListRoute())
	case "search":
		c.NavigateToSearch(arg)
	case "category":
		c.NavigateToCategory(arg)
	case "language":
		c.NavigateToLanguage(arg)
	case "period":
		c.NavigateToTimePeriod(arg)
	case "year":
		year, err := parseYearArg(arg)
		if err != nil {
			fmt.Fprintln(s.out, err)
			break
		}
		c.NavigateToYear(year)
	case "show":
		c.NavigateToDetail(arg)
	case "refresh", "r":
		c.HandleToken(s.history.Token())
	case "back":
		if !s.history.Back() {
			fmt.Fprintln(s.out, "already at the first view")
		}
	default:
		if strings.HasPrefix(line, "#") || strings.Contains(line, "=") {
			s.history.Navigate(strings.TrimPrefix(line, "#"))
			break
		}
		fmt.Fprintf(s.out, "unknown command %q, type help\n", cmd)
	}
	return false
}
