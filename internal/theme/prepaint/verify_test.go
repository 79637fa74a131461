package prepaint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/theme"
)

func TestVerify_SnippetMatchesController(t *testing.T) {
	configs := map[string]theme.InjectorConfig{
		"cookie":        {},
		"local":         {Storage: theme.StorageLocal},
		"default light": {Default: theme.PreferenceLight},
		"default dark":  {Default: theme.PreferenceDark, Storage: theme.StorageLocal},
		"custom key":    {Key: "site-theme", DarkClass: "theme-dark"},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			results, err := Verify(cfg)
			require.NoError(t, err)
			require.Len(t, results, len(Cases()))
			for _, r := range results {
				assert.True(t, r.Match(), "%s: snippet %s, controller %s", r.Case, r.Snippet, r.Controller)
			}
		})
	}
}

func TestRunSnippet_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want Outcome
	}{
		{"stored system, os dark", Case{Stored: "system", HasStored: true, Signal: theme.Dark}, Outcome{Dark: true, ColorScheme: "dark"}},
		{"stored light, os dark", Case{Stored: "light", HasStored: true, Signal: theme.Dark}, Outcome{ColorScheme: "light"}},
		{"nothing stored, no matchMedia", Case{}, Outcome{ColorScheme: "light"}},
		{"stored dark, no matchMedia", Case{Stored: "dark", HasStored: true}, Outcome{Dark: true, ColorScheme: "dark"}},
		{"garbage, os dark", Case{Stored: "purple", HasStored: true, Signal: theme.Dark}, Outcome{Dark: true, ColorScheme: "dark"}},
		{"storage throws, os dark", Case{StorageFails: true, Signal: theme.Dark}, Outcome{Dark: true, ColorScheme: "dark"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RunSnippet(theme.InjectorConfig{}, tc.c)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPrePaint_BrokenRootFallsBackToLight(t *testing.T) {
	page, err := NewPage(Env{Stored: "dark", HasStored: true, Signal: theme.Dark, BrokenRoot: true})
	require.NoError(t, err)

	require.NoError(t, page.Run(theme.PrePaintScript(theme.InjectorConfig{})))
	assert.False(t, page.HasClass("dark"))
	assert.Equal(t, "light", page.ColorScheme())
}

func TestCase_String(t *testing.T) {
	assert.Equal(t, "stored=absent system=none", Case{}.String())
	assert.Equal(t, `stored="dark" system=light`, Case{Stored: "dark", HasStored: true, Signal: theme.Light}.String())
	assert.Equal(t, "stored=unreadable system=dark", Case{StorageFails: true, Signal: theme.Dark}.String())
}
