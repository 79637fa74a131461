package prepaint

import (
	"errors"
	"fmt"

	"portfolio/internal/theme"
)

// Outcome is the themed state of a document root.
type Outcome struct {
	Dark        bool
	ColorScheme string
}

func (o Outcome) String() string {
	return fmt.Sprintf("dark=%t color-scheme=%s", o.Dark, o.ColorScheme)
}

// Case is one browser configuration of the consistency matrix.
type Case struct {
	Stored       string
	HasStored    bool
	StorageFails bool
	Signal       theme.Resolved
}

func (c Case) String() string {
	stored := "absent"
	if c.HasStored {
		stored = fmt.Sprintf("%q", c.Stored)
	}
	if c.StorageFails {
		stored = "unreadable"
	}
	signal := string(c.Signal)
	if signal == "" {
		signal = "none"
	}
	return fmt.Sprintf("stored=%s system=%s", stored, signal)
}

// Result compares the pre-paint snippet with the first mounted state of a
// Controller running against the same storage and signal.
type Result struct {
	Case       Case
	Snippet    Outcome
	Controller Outcome
}

// Match reports whether the snippet painted what the controller computed.
func (r Result) Match() bool { return r.Snippet == r.Controller }

// Cases returns every stored value (absent, each preference, garbage,
// unreadable storage) crossed with every signal (light, dark, none).
func Cases() []Case {
	stored := []Case{
		{},
		{Stored: "light", HasStored: true},
		{Stored: "dark", HasStored: true},
		{Stored: "system", HasStored: true},
		{Stored: "purple", HasStored: true},
		{Stored: "dark", HasStored: true, StorageFails: true},
	}
	signals := []theme.Resolved{theme.Light, theme.Dark, ""}
	out := make([]Case, 0, len(stored)*len(signals))
	for _, s := range stored {
		for _, sig := range signals {
			c := s
			c.Signal = sig
			out = append(out, c)
		}
	}
	return out
}

// RunSnippet executes the pre-paint snippet for c and returns the root state.
func RunSnippet(cfg theme.InjectorConfig, c Case) (Outcome, error) {
	page, err := NewPage(Env{
		Storage:      cfg.Storage,
		Key:          cfg.Key,
		Stored:       c.Stored,
		HasStored:    c.HasStored,
		StorageFails: c.StorageFails,
		Signal:       c.Signal,
	})
	if err != nil {
		return Outcome{}, err
	}
	if err := page.Run(theme.PrePaintScript(cfg)); err != nil {
		return Outcome{}, fmt.Errorf("run pre-paint snippet: %w", err)
	}
	class := cfg.DarkClass
	if class == "" {
		class = theme.DefaultDarkClass
	}
	return Outcome{Dark: page.HasClass(class), ColorScheme: page.ColorScheme()}, nil
}

type failingKV struct{}

func (failingKV) Get(string) (string, bool, error) { return "", false, errors.New("storage disabled") }
func (failingKV) Set(string, string) error         { return errors.New("storage disabled") }

// RunController mounts a Controller for c and returns the root state.
func RunController(cfg theme.InjectorConfig, c Case) Outcome {
	var kv theme.KV = theme.NewMemoryKV(nil)
	if c.StorageFails {
		kv = failingKV{}
	} else if c.HasStored {
		kv = theme.NewMemoryKV(map[string]string{storageKey(cfg): c.Stored})
	}
	var watcher theme.Watcher = theme.NoSignal{}
	if c.Signal != "" {
		watcher = theme.NewSignalSource(c.Signal)
	}

	root := theme.NewDocumentRoot()
	ctrl := theme.NewController(theme.Options{
		Store:     theme.NewStore(kv, storageKey(cfg), nil),
		Watcher:   watcher,
		Root:      root,
		DarkClass: cfg.DarkClass,
		Default:   cfg.Default,
	})
	defer ctrl.Close()
	ctrl.Start()

	class := cfg.DarkClass
	if class == "" {
		class = theme.DefaultDarkClass
	}
	return Outcome{Dark: root.HasClass(class), ColorScheme: root.ColorScheme()}
}

func storageKey(cfg theme.InjectorConfig) string {
	if cfg.Key == "" {
		return theme.DefaultStorageKey
	}
	return cfg.Key
}

// Verify runs every case through both implementations.
func Verify(cfg theme.InjectorConfig) ([]Result, error) {
	cases := Cases()
	results := make([]Result, 0, len(cases))
	for _, c := range cases {
		snippet, err := RunSnippet(cfg, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		results = append(results, Result{Case: c, Snippet: snippet, Controller: RunController(cfg, c)})
	}
	return results, nil
}
