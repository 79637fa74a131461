// Package prepaint executes the generated browser theme scripts inside a
// JavaScript VM against a minimal simulated document. It is how the
// pre-paint snippet is checked against the server-side Controller.
package prepaint

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"

	"portfolio/internal/theme"
)

// errStorage is thrown into the VM when storage is configured to fail.
var errStorage = errors.New("SecurityError: storage is disabled")

// Env describes the browser the scripts run in.
type Env struct {
	Storage string // theme.StorageCookie or theme.StorageLocal
	Key     string
	// Stored is the persisted raw value, used when HasStored is set.
	Stored       string
	HasStored    bool
	StorageFails bool
	// Signal is the prefers-color-scheme value; empty means the page has no
	// matchMedia at all.
	Signal theme.Resolved
	// BrokenRoot makes every classList call throw.
	BrokenRoot bool
}

type element struct {
	obj       *goja.Object
	attrs     map[string]string
	text      string
	listeners []goja.Callable
}

type timer struct {
	id  int64
	due time.Duration
	fn  goja.Callable
}

// Page is a simulated document with a single VM. Not safe for concurrent use.
type Page struct {
	vm  *goja.Runtime
	env Env

	classes  map[string]bool
	style    *goja.Object
	storage  map[string]string
	dark     bool
	media    []goja.Callable
	elements map[string]*element

	now     time.Duration
	timers  []*timer
	timerID int64
	frames  []goja.Callable
}

// NewPage builds the document, storage and media objects for env. The page
// carries a theme toggle button and a status region, like the site layout.
func NewPage(env Env) (*Page, error) {
	if env.Key == "" {
		env.Key = theme.DefaultStorageKey
	}
	p := &Page{
		vm:       goja.New(),
		env:      env,
		classes:  map[string]bool{},
		storage:  map[string]string{},
		dark:     env.Signal == theme.Dark,
		elements: map[string]*element{},
	}
	if env.HasStored {
		p.storage[env.Key] = env.Stored
	}
	if err := p.install(); err != nil {
		return nil, fmt.Errorf("install page globals: %w", err)
	}
	return p, nil
}

func (p *Page) throw(err error) {
	panic(p.vm.NewGoError(err))
}

func (p *Page) install() error {
	vm := p.vm
	global := vm.GlobalObject()
	if err := vm.Set("window", global); err != nil {
		return err
	}

	root := vm.NewObject()
	classList := vm.NewObject()
	_ = classList.Set("add", func(call goja.FunctionCall) goja.Value {
		if p.env.BrokenRoot {
			p.throw(errors.New("classList unavailable"))
		}
		p.classes[call.Argument(0).String()] = true
		return goja.Undefined()
	})
	_ = classList.Set("remove", func(call goja.FunctionCall) goja.Value {
		if p.env.BrokenRoot {
			p.throw(errors.New("classList unavailable"))
		}
		delete(p.classes, call.Argument(0).String())
		return goja.Undefined()
	})
	_ = classList.Set("contains", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(p.classes[call.Argument(0).String()])
	})
	p.style = vm.NewObject()
	_ = root.Set("classList", classList)
	_ = root.Set("style", p.style)

	document := vm.NewObject()
	_ = document.Set("documentElement", root)
	_ = document.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if el, ok := p.elements[call.Argument(0).String()]; ok {
			return el.obj
		}
		return goja.Null()
	})
	err := document.DefineAccessorProperty("cookie",
		vm.ToValue(func(goja.FunctionCall) goja.Value {
			if p.env.StorageFails {
				p.throw(errStorage)
			}
			return vm.ToValue(p.cookieHeader())
		}),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if p.env.StorageFails {
				p.throw(errStorage)
			}
			p.setCookie(call.Argument(0).String())
			return goja.Undefined()
		}),
		goja.FLAG_FALSE, goja.FLAG_TRUE)
	if err != nil {
		return err
	}
	if err := vm.Set("document", document); err != nil {
		return err
	}

	local := vm.NewObject()
	_ = local.Set("getItem", func(call goja.FunctionCall) goja.Value {
		if p.env.StorageFails || p.env.Storage != theme.StorageLocal {
			p.throw(errStorage)
		}
		if v, ok := p.storage[call.Argument(0).String()]; ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = local.Set("setItem", func(call goja.FunctionCall) goja.Value {
		if p.env.StorageFails || p.env.Storage != theme.StorageLocal {
			p.throw(errStorage)
		}
		p.storage[call.Argument(0).String()] = call.Argument(1).String()
		return goja.Undefined()
	})
	_ = global.Set("localStorage", local)

	if p.env.Signal != "" {
		_ = global.Set("matchMedia", func(call goja.FunctionCall) goja.Value {
			return p.mediaQueryList(call.Argument(0).String())
		})
	}

	_ = global.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			return goja.Undefined()
		}
		p.timerID++
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
		p.timers = append(p.timers, &timer{id: p.timerID, due: p.now + delay, fn: fn})
		return vm.ToValue(p.timerID)
	})
	_ = global.Set("clearTimeout", func(call goja.FunctionCall) goja.Value {
		id := call.Argument(0).ToInteger()
		for i, t := range p.timers {
			if t.id == id {
				p.timers = append(p.timers[:i], p.timers[i+1:]...)
				break
			}
		}
		return goja.Undefined()
	})
	_ = global.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(0)); ok {
			p.frames = append(p.frames, fn)
		}
		return vm.ToValue(len(p.frames))
	})

	p.addElement("theme-toggle", map[string]string{"data-placeholder": "true"})
	p.addElement("theme-status", nil)
	return nil
}

func (p *Page) mediaQueryList(query string) goja.Value {
	vm := p.vm
	mql := vm.NewObject()
	_ = mql.Set("media", query)
	_ = mql.DefineAccessorProperty("matches",
		vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(strings.Contains(query, "dark") && p.dark)
		}),
		goja.Undefined(), goja.FLAG_FALSE, goja.FLAG_TRUE)
	_ = mql.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
			p.media = append(p.media, fn)
		}
		return goja.Undefined()
	})
	return mql
}

func (p *Page) addElement(id string, attrs map[string]string) {
	vm := p.vm
	el := &element{obj: vm.NewObject(), attrs: map[string]string{}}
	for k, v := range attrs {
		el.attrs[k] = v
	}
	_ = el.obj.Set("id", id)
	_ = el.obj.Set("setAttribute", func(call goja.FunctionCall) goja.Value {
		el.attrs[call.Argument(0).String()] = call.Argument(1).String()
		return goja.Undefined()
	})
	_ = el.obj.Set("removeAttribute", func(call goja.FunctionCall) goja.Value {
		delete(el.attrs, call.Argument(0).String())
		return goja.Undefined()
	})
	_ = el.obj.Set("getAttribute", func(call goja.FunctionCall) goja.Value {
		if v, ok := el.attrs[call.Argument(0).String()]; ok {
			return vm.ToValue(v)
		}
		return goja.Null()
	})
	_ = el.obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if call.Argument(0).String() != "click" {
			return goja.Undefined()
		}
		if fn, ok := goja.AssertFunction(call.Argument(1)); ok {
			el.listeners = append(el.listeners, fn)
		}
		return goja.Undefined()
	})
	_ = el.obj.Set("click", func(goja.FunctionCall) goja.Value {
		if err := p.dispatchClick(el); err != nil {
			p.throw(err)
		}
		return goja.Undefined()
	})
	_ = el.obj.DefineAccessorProperty("textContent",
		vm.ToValue(func(goja.FunctionCall) goja.Value { return vm.ToValue(el.text) }),
		vm.ToValue(func(call goja.FunctionCall) goja.Value {
			el.text = call.Argument(0).String()
			return goja.Undefined()
		}),
		goja.FLAG_FALSE, goja.FLAG_TRUE)
	p.elements[id] = el
}

func (p *Page) dispatchClick(el *element) error {
	event := p.vm.NewObject()
	_ = event.Set("preventDefault", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	for _, fn := range el.listeners {
		if _, err := fn(el.obj, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *Page) cookieHeader() string {
	if p.env.Storage == theme.StorageLocal {
		return ""
	}
	keys := make([]string, 0, len(p.storage))
	for k := range p.storage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(p.storage[k]))
	}
	return strings.Join(parts, "; ")
}

func (p *Page) setCookie(raw string) {
	pair, _, _ := strings.Cut(raw, ";")
	key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
	if !ok {
		return
	}
	if unescaped, err := url.QueryUnescape(value); err == nil {
		value = unescaped
	}
	p.storage[key] = value
}

// Run evaluates a script on the page.
func (p *Page) Run(script string) error {
	_, err := p.vm.RunString(script)
	return err
}

// Frame runs the animation-frame callbacks queued so far.
func (p *Page) Frame() error {
	frames := p.frames
	p.frames = nil
	for _, fn := range frames {
		if _, err := fn(goja.Undefined(), p.vm.ToValue(float64(p.now.Milliseconds()))); err != nil {
			return err
		}
	}
	return nil
}

// Advance moves the page clock forward and fires due timers in order.
func (p *Page) Advance(d time.Duration) error {
	p.now += d
	for {
		idx := -1
		for i, t := range p.timers {
			if t.due <= p.now && (idx < 0 || t.due < p.timers[idx].due) {
				idx = i
			}
		}
		if idx < 0 {
			return nil
		}
		t := p.timers[idx]
		p.timers = append(p.timers[:idx], p.timers[idx+1:]...)
		if _, err := t.fn(goja.Undefined()); err != nil {
			return err
		}
	}
}

// Click activates the element with id.
func (p *Page) Click(id string) error {
	el, ok := p.elements[id]
	if !ok {
		return fmt.Errorf("no element %q", id)
	}
	return p.dispatchClick(el)
}

// SetSignal changes prefers-color-scheme and fires change listeners.
func (p *Page) SetSignal(s theme.Resolved) error {
	dark := s == theme.Dark
	if dark == p.dark {
		return nil
	}
	p.dark = dark
	for _, fn := range p.media {
		if _, err := fn(goja.Undefined()); err != nil {
			return err
		}
	}
	return nil
}

// HasClass reports whether the document root carries name.
func (p *Page) HasClass(name string) bool { return p.classes[name] }

// ColorScheme returns the color-scheme style hint on the root.
func (p *Page) ColorScheme() string {
	v := p.style.Get("colorScheme")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}

// Text returns the text content of the element with id.
func (p *Page) Text(id string) string {
	if el, ok := p.elements[id]; ok {
		return el.text
	}
	return ""
}

// Attr returns an attribute of the element with id.
func (p *Page) Attr(id, name string) (string, bool) {
	el, ok := p.elements[id]
	if !ok {
		return "", false
	}
	v, ok := el.attrs[name]
	return v, ok
}

// Stored returns the persisted value for key.
func (p *Page) Stored(key string) (string, bool) {
	v, ok := p.storage[key]
	return v, ok
}

// State reads window.__theme.state() exposed by the behavior script.
func (p *Page) State() (theme.State, error) {
	v, err := p.vm.RunString(`window.__theme ? window.__theme.state() : null`)
	if err != nil {
		return theme.State{}, err
	}
	if goja.IsNull(v) {
		return theme.State{}, errors.New("behavior script not loaded")
	}
	obj := v.ToObject(p.vm)
	return theme.State{
		Preference: theme.Preference(obj.Get("preference").String()),
		Resolved:   theme.Resolved(obj.Get("resolved").String()),
		Signal:     theme.Resolved(obj.Get("system").String()),
		Mounted:    obj.Get("mounted").ToBoolean(),
	}, nil
}
