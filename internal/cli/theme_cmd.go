package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/theme"
	"portfolio/internal/theme/prepaint"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Resolve, verify and drive theme synchronization",
	}
	cmd.AddCommand(newThemeResolveCmd())
	cmd.AddCommand(newThemeVerifyCmd())
	cmd.AddCommand(newThemeDetectCmd())
	cmd.AddCommand(newThemeSetCmd())
	cmd.AddCommand(newThemeToggleCmd())
	return cmd
}

func parsePreferenceFlag(name, raw string) (theme.Preference, error) {
	p, ok := theme.ParsePreference(raw)
	if !ok {
		return "", fmt.Errorf("invalid --%s %q: use light, dark or system", name, raw)
	}
	return p, nil
}

func newThemeResolveCmd() *cobra.Command {
	var preference, system string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the theme painted for a preference and system signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePreferenceFlag("preference", preference)
			if err != nil {
				return err
			}
			s, ok := theme.ParseResolved(system)
			if !ok {
				return fmt.Errorf("invalid --system %q: use light or dark", system)
			}
			resolved := theme.Resolve(p, s)

			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]string{
					"preference": string(p),
					"system":     string(s),
					"resolved":   string(resolved),
				})
			}
			_, _ = fmt.Fprintln(os.Stdout, resolved)
			return nil
		},
	}
	cmd.Flags().StringVar(&preference, "preference", string(theme.PreferenceSystem), "Stored preference (light, dark, system)")
	cmd.Flags().StringVar(&system, "system", string(theme.Light), "OS color-scheme signal (light, dark)")
	return cmd
}

func newThemeVerifyCmd() *cobra.Command {
	var (
		key       string
		darkClass string
		storage   string
		def       string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the pre-paint snippet against the controller for every stored value and signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePreferenceFlag("default", def)
			if err != nil {
				return err
			}
			if storage != theme.StorageCookie && storage != theme.StorageLocal {
				return fmt.Errorf("invalid --storage %q: use cookie or local", storage)
			}
			results, err := prepaint.Verify(theme.InjectorConfig{
				Key:       key,
				DarkClass: darkClass,
				Storage:   storage,
				Default:   p,
			})
			if err != nil {
				return err
			}

			failed := 0
			for _, r := range results {
				if !r.Match() {
					failed++
				}
			}

			if getOutputFormat(cmd) == "json" {
				type row struct {
					Case       string `json:"case"`
					Snippet    string `json:"snippet"`
					Controller string `json:"controller"`
					Match      bool   `json:"match"`
				}
				rows := make([]row, 0, len(results))
				for _, r := range results {
					rows = append(rows, row{Case: r.Case.String(), Snippet: r.Snippet.String(), Controller: r.Controller.String(), Match: r.Match()})
				}
				if err := printJSON(os.Stdout, rows); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Case.String(), r.Snippet.String(), r.Controller.String(), strconv.FormatBool(r.Match())})
				}
				printTable(os.Stdout, []string{"case", "snippet", "controller", "match"}, rows)
				if failed == 0 {
					_, _ = fmt.Fprintf(os.Stdout, "\nall %d cases agree\n", len(results))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d cases disagree", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", theme.DefaultStorageKey, "Storage key")
	cmd.Flags().StringVar(&darkClass, "dark-class", theme.DefaultDarkClass, "Class set on the root while dark")
	cmd.Flags().StringVar(&storage, "storage", theme.StorageCookie, "Browser storage (cookie, local)")
	cmd.Flags().StringVar(&def, "default", string(theme.PreferenceSystem), "Preference used when nothing is stored")
	return cmd
}

// hostFlags configure a controller over the desktop detectors and the
// preferences file.
type hostFlags struct {
	prefs string
	key   string
	def   string
}

func (f *hostFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.prefs, "prefs", DefaultPrefsPath(), "Preferences file")
	fs.StringVar(&f.key, "key", theme.DefaultStorageKey, "Preference key")
	fs.StringVar(&f.def, "default", string(theme.PreferenceSystem), "Preference used when nothing is stored")
}

type hostController struct {
	*theme.Controller
	chain       *theme.DetectorChain
	integration *theme.HostIntegration
}

func (f *hostFlags) controller(sched theme.Scheduler, logger *slog.Logger) (*hostController, error) {
	def, err := parsePreferenceFlag("default", f.def)
	if err != nil {
		return nil, err
	}
	store := theme.NewStore(NewFileKV(f.prefs), f.key, logger)
	chain := theme.HostDetectors()
	integration := theme.NewHostIntegration(chain, store)
	ctrl := theme.NewController(theme.Options{
		Integration: integration,
		Store:       store,
		Root:        theme.NewDocumentRoot(),
		Scheduler:   sched,
		Default:     def,
		Logger:      logger,
	})
	return &hostController{Controller: ctrl, chain: chain, integration: integration}, nil
}

func printThemeState(cmd *cobra.Command, hc *hostController, announcement string) error {
	st := hc.State()
	_, detector, detected := hc.chain.Detect()
	if !detected {
		detector = "none"
	}

	if getOutputFormat(cmd) == "json" {
		out := map[string]any{
			"preference": st.Preference,
			"system":     st.Signal,
			"resolved":   st.Resolved,
			"backend":    hc.Backend(),
			"detector":   detector,
		}
		if announcement != "" {
			out["announcement"] = announcement
		}
		return printJSON(os.Stdout, out)
	}

	if announcement != "" {
		_, _ = fmt.Fprintln(os.Stdout, announcement)
	}
	printTable(os.Stdout, []string{"field", "value"}, [][]string{
		{"preference", string(st.Preference)},
		{"system", string(st.Signal)},
		{"resolved", string(st.Resolved)},
		{"backend", hc.Backend()},
		{"detector", detector},
	})
	return nil
}

func newThemeDetectCmd() *cobra.Command {
	var (
		flags    hostFlags
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Show the desktop color scheme and the theme it resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := commandLogger(cmd)
			if !watch {
				hc, err := flags.controller(theme.Inline{}, logger)
				if err != nil {
					return err
				}
				defer hc.Close()
				hc.Start()
				return printThemeState(cmd, hc, "")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return watchTheme(ctx, cmd, &flags, interval, logger)
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Keep polling and print every change")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "Polling interval with --watch")
	return cmd
}

// watchTheme runs a controller on its own loop and prints each state until
// ctx is done.
func watchTheme(ctx context.Context, cmd *cobra.Command, flags *hostFlags, interval time.Duration, logger *slog.Logger) error {
	loop := theme.NewLoop()
	hc, err := flags.controller(loop, logger)
	if err != nil {
		return err
	}
	defer hc.Close()

	if hc.Backend() != "primary" {
		logger.Warn("no desktop color-scheme detector available; following the stored preference only")
	}

	asJSON := getOutputFormat(cmd) == "json"
	live := !asJSON && stdoutIsTerminal()
	enc := json.NewEncoder(os.Stdout)
	hc.Subscribe(func(st theme.State) {
		switch {
		case asJSON:
			_ = enc.Encode(st)
		case live:
			_, _ = fmt.Fprintf(os.Stdout, "\r\033[Kpreference=%s system=%s resolved=%s", st.Preference, st.Signal, st.Resolved)
		default:
			_, _ = fmt.Fprintf(os.Stdout, "preference=%s system=%s resolved=%s\n", st.Preference, st.Signal, st.Resolved)
		}
	})
	hc.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Run only returns once gctx is done.
		_ = loop.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hc.integration.Poll(gctx, interval)
		return nil
	})
	err = g.Wait()
	if live {
		_, _ = fmt.Fprintln(os.Stdout)
	}
	return err
}

func newThemeSetCmd() *cobra.Command {
	var flags hostFlags
	cmd := &cobra.Command{
		Use:       "set <light|dark|system>",
		Short:     "Store a theme preference",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(theme.PreferenceLight), string(theme.PreferenceDark), string(theme.PreferenceSystem)},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := theme.ParsePreference(args[0])
			if !ok {
				return fmt.Errorf("invalid preference %q: use light, dark or system", args[0])
			}
			hc, err := flags.controller(theme.Inline{}, commandLogger(cmd))
			if err != nil {
				return err
			}
			defer hc.Close()
			hc.Start()

			if err := hc.SetPreference(p); err != nil {
				return err
			}
			return printThemeState(cmd, hc, theme.Announcement(p))
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newThemeToggleCmd() *cobra.Command {
	var flags hostFlags
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Advance the stored preference along light, dark and system",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hc, err := flags.controller(theme.Inline{}, commandLogger(cmd))
			if err != nil {
				return err
			}
			defer hc.Close()
			hc.Start()

			p, err := hc.Toggle()
			if err != nil {
				return err
			}
			return printThemeState(cmd, hc, theme.Announcement(p))
		},
	}
	flags.register(cmd.Flags())
	return cmd
}
