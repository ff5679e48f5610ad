package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pders01/wscroll/internal/category"
	"github.com/pders01/wscroll/internal/config"
	"github.com/pders01/wscroll/internal/debuglog"
	"github.com/pders01/wscroll/internal/feed"
	"github.com/pders01/wscroll/internal/tui"
	"github.com/pders01/wscroll/internal/validation"
	"github.com/pders01/wscroll/internal/wiki"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	flagConfig string
	flagDebug  bool
	flagQuiet  bool
	flagLimit  int
)

var rootCmd = &cobra.Command{
	Use:           "wscroll",
	Short:         "Scroll Wikipedia from the terminal",
	Long:          "wscroll is an endless, searchable feed of Wikipedia articles in your terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wscroll %s\n", Version)
		fmt.Println("Terminal Wikipedia feed")
		fmt.Println("github.com/pders01/wscroll")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		configFile := config.DefaultPath()
		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the browsable categories",
	Run: func(cmd *cobra.Command, args []string) {
		printCategories(cmd.OutOrStdout())
	},
}

var featuredCmd = &cobra.Command{
	Use:   "featured",
	Short: "Show Wikipedia's featured articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		items, err := wiki.NewClient(cfg).Featured(cmd.Context(), flagLimit)
		if err != nil {
			return err
		}
		printFeatured(cmd.OutOrStdout(), items)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Print one page of search results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), wiki.NewClient(cfg), cfg, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "write debug logs (overrides log.level)")
	rootCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "skip startup banner")
	featuredCmd.Flags().IntVar(&flagLimit, "limit", 10, "maximum number of entries")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, categoriesCmd, featuredCmd, searchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	debuglog.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, the config file and the environment, then sets up logging.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := setupLogging(cfg, flagDebug); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config, debug bool) error {
	var paths []string
	if cfg.Log.Path != "" {
		paths = append(paths, cfg.Log.Path)
	}

	var err error
	if debug {
		err = debuglog.SetupWithBool(true, paths...)
	} else {
		err = debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), paths...)
	}
	if err != nil {
		return fmt.Errorf("setting up log: %w", err)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if !flagQuiet {
		tui.ShowBanner(Version)
	}

	debuglog.WithFields(map[string]interface{}{
		"version":  Version,
		"endpoint": cfg.API.BaseURL,
	}).Infof("starting")

	app := tui.NewApp(wiki.NewClient(cfg), cfg)
	defer func() {
		if err := app.Close(); err != nil {
			debuglog.Warnf("closing app: %v", err)
		}
	}()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func runSearch(ctx context.Context, w io.Writer, src feed.Source, cfg *config.Config, term string) error {
	query := validation.SanitizeQuery(term)
	if query == "" {
		return errors.New("search term is empty")
	}

	ctrl := feed.NewController(src, feed.WithPageSize(cfg.API.PageSize))
	state, err := ctrl.Search(ctx, query)
	if err != nil {
		return err
	}

	if len(state.Articles) == 0 {
		fmt.Fprintln(w, "No articles found")
		return nil
	}

	title := lipgloss.NewStyle().Bold(true)
	for i, a := range state.Articles {
		fmt.Fprintf(w, "%2d. %s\n", i+1, title.Render(a.Title))
		if extract := oneLine(a.Extract, 100); extract != "" {
			fmt.Fprintf(w, "    %s\n", extract)
		}
		fmt.Fprintf(w, "    %s\n", wiki.PageURL(cfg.API.SiteURL, a.Title))
	}
	if state.HasMore {
		fmt.Fprintf(w, "\nShowing the first %d results\n", len(state.Articles))
	}
	return nil
}

func printCategories(w io.Writer) {
	for _, c := range category.All() {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("●")
		fmt.Fprintf(w, "%s %-14s %s\n", swatch, c.ID, strings.Join(c.SearchTerms, ", "))
	}
}

func printFeatured(w io.Writer, items []wiki.FeaturedItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No featured articles")
		return
	}
	for _, it := range items {
		date := ""
		if !it.Published.IsZero() {
			date = it.Published.Format("2006-01-02") + "  "
		}
		fmt.Fprintf(w, "%s%s\n", date, it.Title)
		if it.Link != "" {
			fmt.Fprintf(w, "    %s\n", it.Link)
		}
	}
}

// oneLine collapses whitespace and cuts s to limit runes.
func oneLine(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit-1])) + "…"
}
