package theme_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio/internal/theme"
	"portfolio/internal/theme/themetest"
)

type fixture struct {
	kv     *theme.MemoryKV
	source *theme.SignalSource
	root   *theme.DocumentRoot
	sched  *themetest.ManualScheduler
	ctrl   *theme.Controller
}

func newFixture(t *testing.T, stored string, signal theme.Resolved) *fixture {
	t.Helper()
	f := &fixture{
		kv:     theme.NewMemoryKV(nil),
		source: theme.NewSignalSource(signal),
		root:   theme.NewDocumentRoot(),
		sched:  &themetest.ManualScheduler{},
	}
	if stored != "" {
		require.NoError(t, f.kv.Set(theme.DefaultStorageKey, stored))
	}
	f.ctrl = theme.NewController(theme.Options{
		Store:     theme.NewStore(f.kv, "", nil),
		Watcher:   f.source,
		Root:      f.root,
		Scheduler: f.sched,
	})
	t.Cleanup(f.ctrl.Close)
	return f
}

func (f *fixture) mount() {
	f.ctrl.Start()
	f.sched.RunPending()
}

func (f *fixture) stored() string {
	v, _, _ := f.kv.Get(theme.DefaultStorageKey)
	return v
}

func TestController_UnmountedUntilStartRuns(t *testing.T) {
	f := newFixture(t, "dark", theme.Dark)

	st := f.ctrl.State()
	assert.False(t, st.Mounted)
	assert.Equal(t, theme.PreferenceSystem, st.Preference)

	f.ctrl.Start()
	assert.False(t, f.ctrl.State().Mounted, "mount is deferred")
	assert.Equal(t, 1, f.sched.Pending())

	f.ctrl.Start()
	assert.Equal(t, 1, f.sched.Pending(), "second Start is ignored")

	f.sched.RunPending()
	st = f.ctrl.State()
	assert.True(t, st.Mounted)
	assert.Equal(t, theme.PreferenceDark, st.Preference)
	assert.Equal(t, theme.Dark, st.Resolved)
	assert.Equal(t, 1, f.source.Listeners())
}

func TestController_SystemPreferenceFollowsDarkSignal(t *testing.T) {
	f := newFixture(t, "system", theme.Dark)
	f.mount()

	st := f.ctrl.State()
	assert.Equal(t, theme.PreferenceSystem, st.Preference)
	assert.Equal(t, theme.Dark, st.Resolved)
	assert.True(t, f.root.HasClass("dark"))
	assert.Equal(t, "dark", f.root.ColorScheme())
}

func TestController_ExplicitLightIgnoresDarkSignal(t *testing.T) {
	f := newFixture(t, "light", theme.Dark)
	f.mount()

	assert.Equal(t, theme.Light, f.ctrl.State().Resolved)
	assert.False(t, f.root.HasClass("dark"))
	assert.Equal(t, "light", f.root.ColorScheme())
}

func TestController_NothingStoredNoSignal(t *testing.T) {
	root := theme.NewDocumentRoot()
	ctrl := theme.NewController(theme.Options{
		Store: theme.NewStore(theme.NewMemoryKV(nil), "", nil),
		Root:  root,
	})
	defer ctrl.Close()
	ctrl.Start()

	st := ctrl.State()
	assert.True(t, st.Mounted)
	assert.Equal(t, theme.PreferenceSystem, st.Preference)
	assert.Equal(t, theme.Light, st.Resolved)
	assert.False(t, root.HasClass("dark"))
	assert.Equal(t, "light", root.ColorScheme())
}

func TestController_InvalidStoredValueUsesDefault(t *testing.T) {
	f := newFixture(t, "purple", theme.Dark)
	f.mount()

	st := f.ctrl.State()
	assert.Equal(t, theme.PreferenceSystem, st.Preference)
	assert.Equal(t, theme.Dark, st.Resolved)
}

func TestController_SetPreference(t *testing.T) {
	f := newFixture(t, "", theme.Light)
	f.mount()

	for _, p := range theme.Preferences {
		for _, signal := range theme.Signals {
			f.source.Set(signal)
			f.sched.RunPending()

			require.NoError(t, f.ctrl.SetPreference(p))
			st := f.ctrl.State()
			assert.Equal(t, p, st.Preference)
			assert.Equal(t, theme.Resolve(p, signal), st.Resolved)
			assert.Equal(t, string(p), f.stored())
			assert.Equal(t, st.Resolved == theme.Dark, f.root.HasClass("dark"))
			assert.Equal(t, string(st.Resolved), f.root.ColorScheme())
		}
	}
}

func TestController_SetPreferenceRejectsUnknown(t *testing.T) {
	f := newFixture(t, "dark", theme.Light)
	f.mount()

	err := f.ctrl.SetPreference("purple")
	require.ErrorIs(t, err, theme.ErrInvalidPreference)
	assert.Equal(t, theme.PreferenceDark, f.ctrl.State().Preference)
	assert.Equal(t, "dark", f.stored())
}

func TestController_ToggleCyclesAndReturns(t *testing.T) {
	f := newFixture(t, "light", theme.Dark)
	f.mount()

	var seen []theme.Preference
	for range 3 {
		p, err := f.ctrl.Toggle()
		require.NoError(t, err)
		seen = append(seen, p)
	}
	assert.Equal(t, []theme.Preference{theme.PreferenceDark, theme.PreferenceSystem, theme.PreferenceLight}, seen)
	assert.Equal(t, theme.PreferenceLight, f.ctrl.State().Preference)
	assert.Equal(t, "light", f.stored())
}

func TestController_SignalChangeReappliesSystemOnly(t *testing.T) {
	f := newFixture(t, "system", theme.Light)
	f.mount()

	f.source.Set(theme.Dark)
	assert.False(t, f.root.HasClass("dark"), "handled on the scheduler")
	f.sched.RunPending()
	assert.True(t, f.root.HasClass("dark"))
	assert.Equal(t, theme.Dark, f.ctrl.State().Resolved)

	require.NoError(t, f.ctrl.SetPreference(theme.PreferenceLight))
	f.source.Set(theme.Light)
	f.source.Set(theme.Dark)
	f.sched.RunPending()

	st := f.ctrl.State()
	assert.Equal(t, theme.Light, st.Resolved)
	assert.Equal(t, theme.Dark, st.Signal)
	assert.False(t, f.root.HasClass("dark"))

	require.NoError(t, f.ctrl.SetPreference(theme.PreferenceSystem))
	assert.True(t, f.root.HasClass("dark"), "switching to system uses the last observed signal")
}

func TestController_WriteFailureStillApplies(t *testing.T) {
	root := theme.NewDocumentRoot()
	ctrl := theme.NewController(theme.Options{
		Store:   theme.NewStore(themetest.WriteFailingKV{Values: map[string]string{"theme": "light"}}, "", nil),
		Watcher: theme.NewSignalSource(theme.Light),
		Root:    root,
	})
	defer ctrl.Close()
	ctrl.Start()

	require.NoError(t, ctrl.SetPreference(theme.PreferenceDark))
	assert.Equal(t, theme.PreferenceDark, ctrl.State().Preference)
	assert.True(t, root.HasClass("dark"))
}

func TestController_UnreadableStorageUsesDefault(t *testing.T) {
	ctrl := theme.NewController(theme.Options{
		Store:   theme.NewStore(themetest.FailingKV{}, "", nil),
		Watcher: theme.NewSignalSource(theme.Dark),
		Root:    theme.NewDocumentRoot(),
		Default: theme.PreferenceLight,
	})
	defer ctrl.Close()
	ctrl.Start()

	st := ctrl.State()
	assert.Equal(t, theme.PreferenceLight, st.Preference)
	assert.Equal(t, theme.Light, st.Resolved)
}

func TestController_ApplyFailureLeavesStateUnchanged(t *testing.T) {
	kv := theme.NewMemoryKV(map[string]string{"theme": "light"})
	ctrl := theme.NewController(theme.Options{
		Store: theme.NewStore(kv, "", nil),
		Root:  themetest.BrokenRoot{},
	})
	defer ctrl.Close()
	ctrl.Start()
	require.True(t, ctrl.State().Mounted)

	err := ctrl.SetPreference(theme.PreferenceDark)
	var applyErr *theme.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, theme.Dark, applyErr.Resolved)
	assert.Equal(t, theme.PreferenceLight, ctrl.State().Preference)

	v, _, _ := kv.Get("theme")
	assert.Equal(t, "light", v)
}

func TestController_SetPreferenceBeforeMount(t *testing.T) {
	f := newFixture(t, "light", theme.Dark)

	require.NoError(t, f.ctrl.SetPreference(theme.PreferenceSystem))
	st := f.ctrl.State()
	assert.False(t, st.Mounted)
	assert.Equal(t, theme.PreferenceSystem, st.Preference)
	assert.Equal(t, theme.Light, st.Signal, "watcher is not read before mount")
	assert.Equal(t, "light", f.stored(), "store is not written before mount")
	assert.Equal(t, 0, f.source.Listeners())

	f.sched.RunPending()
	assert.Equal(t, 0, f.sched.Pending())
	f.mount()
	st = f.ctrl.State()
	assert.True(t, st.Mounted)
	assert.Equal(t, theme.PreferenceSystem, st.Preference, "in-session choice wins over stored value")
	assert.Equal(t, theme.Dark, st.Resolved)
	assert.True(t, f.root.HasClass("dark"))
	assert.Equal(t, "system", f.stored(), "choice is persisted at mount")
}

func TestController_SetPreferenceBeforeMountSurvivesFailedWrite(t *testing.T) {
	root := theme.NewDocumentRoot()
	sched := &themetest.ManualScheduler{}
	ctrl := theme.NewController(theme.Options{
		Store:     theme.NewStore(themetest.WriteFailingKV{Values: map[string]string{theme.DefaultStorageKey: "light"}}, "", nil),
		Watcher:   theme.NewSignalSource(theme.Light),
		Root:      root,
		Scheduler: sched,
	})
	t.Cleanup(ctrl.Close)

	ctrl.Start()
	require.NoError(t, ctrl.SetPreference(theme.PreferenceDark))
	sched.RunPending()

	st := ctrl.State()
	assert.True(t, st.Mounted)
	assert.Equal(t, theme.PreferenceDark, st.Preference)
	assert.Equal(t, theme.Dark, st.Resolved)
	assert.True(t, root.HasClass("dark"))
}

func TestController_SubscribeAndUnsubscribe(t *testing.T) {
	f := newFixture(t, "light", theme.Light)

	var states []theme.State
	unsubscribe := f.ctrl.Subscribe(func(s theme.State) { states = append(states, s) })

	f.mount()
	require.Len(t, states, 1)
	assert.True(t, states[0].Mounted)

	_, err := f.ctrl.Toggle()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, theme.PreferenceDark, states[1].Preference)

	unsubscribe()
	_, err = f.ctrl.Toggle()
	require.NoError(t, err)
	assert.Len(t, states, 2)
}

func TestController_ListenerMayReadState(t *testing.T) {
	f := newFixture(t, "", theme.Light)
	var got theme.State
	f.ctrl.Subscribe(func(theme.State) { got = f.ctrl.State() })
	f.mount()
	assert.True(t, got.Mounted)
}

func TestController_NoCallbacksAfterClose(t *testing.T) {
	f := newFixture(t, "system", theme.Light)
	calls := 0
	f.ctrl.Subscribe(func(theme.State) { calls++ })
	f.mount()
	require.Equal(t, 1, calls)

	f.ctrl.Close()
	assert.Equal(t, 0, f.source.Listeners())

	f.source.Set(theme.Dark)
	f.sched.RunPending()
	assert.Equal(t, 1, calls)
	assert.False(t, f.root.HasClass("dark"))

	assert.ErrorIs(t, f.ctrl.SetPreference(theme.PreferenceDark), theme.ErrClosed)
	_, err := f.ctrl.Toggle()
	assert.ErrorIs(t, err, theme.ErrClosed)
	assert.Equal(t, "system", f.stored(), "close leaves the stored preference in place")

	assert.NotPanics(t, f.ctrl.Close)
}

func TestController_CloseBeforeMountSkipsInit(t *testing.T) {
	f := newFixture(t, "dark", theme.Light)
	f.ctrl.Start()
	f.ctrl.Close()
	f.sched.RunPending()

	assert.False(t, f.ctrl.State().Mounted)
	assert.Equal(t, 0, f.source.Listeners())
	assert.Empty(t, f.root.ColorScheme())
}

type fakeIntegration struct {
	*theme.SignalSource
	probeErr   error
	probePanic bool
	loaded     theme.Preference
	loadErr    error
	saved      []theme.Preference
}

func (f *fakeIntegration) Probe() error {
	if f.probePanic {
		panic("host bridge missing")
	}
	return f.probeErr
}

func (f *fakeIntegration) Load() (theme.Preference, bool, error) {
	if f.loadErr != nil {
		return "", false, f.loadErr
	}
	return f.loaded, f.loaded != "", nil
}

func (f *fakeIntegration) Save(p theme.Preference) error {
	f.saved = append(f.saved, p)
	return nil
}

func TestController_PrimaryBackend(t *testing.T) {
	integ := &fakeIntegration{SignalSource: theme.NewSignalSource(theme.Dark), loaded: theme.PreferenceSystem}
	kv := theme.NewMemoryKV(map[string]string{"theme": "light"})
	root := theme.NewDocumentRoot()

	ctrl := theme.NewController(theme.Options{
		Integration: integ,
		Store:       theme.NewStore(kv, "", nil),
		Root:        root,
	})
	defer ctrl.Close()
	assert.Equal(t, "primary", ctrl.Backend())

	ctrl.Start()
	assert.Equal(t, theme.Dark, ctrl.State().Resolved)

	require.NoError(t, ctrl.SetPreference(theme.PreferenceLight))
	assert.Equal(t, []theme.Preference{theme.PreferenceLight}, integ.saved)

	v, _, _ := kv.Get("theme")
	assert.Equal(t, "light", v, "self-contained store untouched")
}

func TestController_PrimaryLoadErrorUsesDefault(t *testing.T) {
	integ := &fakeIntegration{SignalSource: theme.NewSignalSource(theme.Light), loadErr: errors.New("bridge down")}
	ctrl := theme.NewController(theme.Options{Integration: integ, Default: theme.PreferenceDark})
	defer ctrl.Close()
	ctrl.Start()
	assert.Equal(t, theme.PreferenceDark, ctrl.State().Preference)
}

func TestController_FallsBackWhenIntegrationUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		integ theme.Integration
	}{
		{"none", nil},
		{"probe error", &fakeIntegration{SignalSource: theme.NewSignalSource(theme.Dark), probeErr: errors.New("no host")}},
		{"probe panic", &fakeIntegration{SignalSource: theme.NewSignalSource(theme.Dark), probePanic: true}},
		{"host without detectors", theme.NewHostIntegration(theme.NewDetectorChain(), theme.NewStore(theme.NewMemoryKV(nil), "", nil))},
		{"host with nil chain", theme.NewHostIntegration(nil, theme.NewStore(theme.NewMemoryKV(nil), "", nil))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := theme.NewMemoryKV(map[string]string{"theme": "dark"})
			ctrl := theme.NewController(theme.Options{
				Integration: tc.integ,
				Store:       theme.NewStore(kv, "", nil),
				Root:        theme.NewDocumentRoot(),
			})
			defer ctrl.Close()
			assert.Equal(t, "self-contained", ctrl.Backend())

			ctrl.Start()
			assert.Equal(t, theme.PreferenceDark, ctrl.State().Preference)

			_, err := ctrl.Toggle()
			require.NoError(t, err)
			v, _, _ := kv.Get("theme")
			assert.Equal(t, "system", v)
		})
	}
}
