package theme

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Storage names where the browser keeps the preference.
const (
	StorageCookie = "cookie"
	StorageLocal  = "local"
)

// InjectorConfig parameterizes the browser scripts. The same values must be
// used for the Controller on the server so both compute the same theme.
type InjectorConfig struct {
	Key           string
	DarkClass     string
	Storage       string
	Default       Preference
	AnnounceDelay time.Duration
}

func (c InjectorConfig) withDefaults() InjectorConfig {
	if c.Key == "" {
		c.Key = DefaultStorageKey
	}
	if c.DarkClass == "" {
		c.DarkClass = DefaultDarkClass
	}
	if c.Storage != StorageLocal {
		c.Storage = StorageCookie
	}
	if !c.Default.Valid() {
		c.Default = PreferenceSystem
	}
	if c.AnnounceDelay <= 0 {
		c.AnnounceDelay = DefaultAnnounceDelay
	}
	return c
}

// The read/write snippets assign the raw stored value to `stored` and
// persist `value` respectively. Either may throw.
const cookieRead = `var parts=document.cookie?String(document.cookie).split(';'):[];
      for(var i=0;i<parts.length;i++){
        var kv=parts[i].replace(/^\s+|\s+$/g,'');
        if(kv.indexOf(KEY+'=')===0){stored=decodeURIComponent(kv.slice(KEY.length+1));}
      }`

const cookieWrite = `document.cookie=KEY+'='+encodeURIComponent(value)+'; Path=/; Max-Age=MAX_AGE; SameSite=Lax';`

const localRead = `stored=window.localStorage.getItem(KEY);`

const localWrite = `window.localStorage.setItem(KEY,value);`

// prePaintTemplate runs before first paint. It must stay logically identical
// to Resolve: stored light/dark win, anything else follows the default, and
// system follows prefers-color-scheme. Any failure leaves the root light.
const prePaintTemplate = `(function(){
  var root=document.documentElement;
  var KEY=__KEY__, CLASS=__CLASS__, DEFAULT=__DEFAULT__;
  try {
    var stored=null;
    try {
      READ
    } catch (_) { stored=null; }
    var pref=stored==='light'||stored==='dark'||stored==='system'?stored:DEFAULT;
    var mq=window.matchMedia?window.matchMedia('(prefers-color-scheme: dark)'):null;
    var signal=mq&&mq.matches?'dark':'light';
    var resolved=pref==='system'?signal:pref;
    if(resolved==='dark'){root.classList.add(CLASS);}else{root.classList.remove(CLASS);}
    root.style.colorScheme=resolved;
  } catch (_) {
    try { root.style.colorScheme='light'; } catch (_) {}
    try { root.classList.remove(CLASS); } catch (_) {}
  }
})();`

// behaviorTemplate is the in-browser counterpart of Controller and Toggle.
const behaviorTemplate = `(function(){
  var root=document.documentElement;
  var KEY=__KEY__, CLASS=__CLASS__, DEFAULT=__DEFAULT__, DELAY=__DELAY__;
  var FAILED=__FAILED__;
  var ORDER=['light','dark','system'];
  var mq=null;
  try { mq=window.matchMedia?window.matchMedia('(prefers-color-scheme: dark)'):null; } catch (_) {}
  var state={preference:DEFAULT, resolved:'light', system:'light', mounted:false};
  var toggle=document.getElementById('theme-toggle');
  var status=document.getElementById('theme-status');
  var timer=null;

  function read(){
    var stored=null;
    try {
      READ
    } catch (_) { stored=null; }
    return stored==='light'||stored==='dark'||stored==='system'?stored:null;
  }
  function write(value){
    try {
      WRITE
    } catch (_) {}
  }
  function signal(){ return mq&&mq.matches?'dark':'light'; }
  function resolve(p, s){ return p==='system'?s:p; }
  function next(p){ return ORDER[(ORDER.indexOf(p)+1)%ORDER.length]; }
  function apply(resolved){
    if(resolved==='dark'){root.classList.add(CLASS);}else{root.classList.remove(CLASS);}
    root.style.colorScheme=resolved;
  }
  function render(){
    if(!toggle){ return; }
    toggle.removeAttribute('data-placeholder');
    toggle.setAttribute('data-preference', state.preference);
    var label='Theme: '+state.preference+'. Switch to '+next(state.preference)+' theme';
    toggle.setAttribute('aria-label', label);
    toggle.setAttribute('title', label);
  }
  function announce(msg){
    if(!status){ return; }
    status.textContent=msg;
    if(timer!==null){ clearTimeout(timer); }
    timer=setTimeout(function(){ status.textContent=''; timer=null; }, DELAY);
  }
  function setPreference(p){
    if(ORDER.indexOf(p)<0){ throw new Error('invalid theme preference: '+p); }
    var resolved=resolve(p, state.system);
    apply(resolved);
    write(p);
    state.preference=p;
    state.resolved=resolved;
    render();
  }
  function onSystemChange(){
    var s=signal();
    if(s===state.system){ return; }
    state.system=s;
    if(state.preference==='system'){
      state.resolved=s;
      apply(s);
      render();
    }
  }
  function mount(){
    if(state.mounted){ return; }
    state.preference=read()||DEFAULT;
    state.system=signal();
    state.resolved=resolve(state.preference, state.system);
    try { apply(state.resolved); } catch (_) {}
    if(mq){
      if(mq.addEventListener){ mq.addEventListener('change', onSystemChange); }
      else if(mq.addListener){ mq.addListener(onSystemChange); }
    }
    state.mounted=true;
    render();
  }

  if(toggle){
    toggle.addEventListener('click', function(e){
      if(e&&e.preventDefault){ e.preventDefault(); }
      if(!state.mounted){ return; }
      try {
        var p=next(state.preference);
        setPreference(p);
        announce('Switched to '+p+' theme');
      } catch (_) {
        announce(FAILED);
      }
    });
  }

  window.__theme={
    state:function(){ return {preference:state.preference, resolved:state.resolved, system:state.system, mounted:state.mounted}; },
    setPreference:setPreference,
    toggle:function(){ if(toggle){ toggle.click(); } }
  };

  if(window.requestAnimationFrame){ window.requestAnimationFrame(mount); } else { setTimeout(mount, 0); }
})();`

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func (c InjectorConfig) replacer() *strings.Replacer {
	read, write := cookieRead, cookieWrite
	if c.Storage == StorageLocal {
		read, write = localRead, localWrite
	}
	write = strings.ReplaceAll(write, "MAX_AGE", strconv.Itoa(int(CookieMaxAge.Seconds())))
	return strings.NewReplacer(
		"READ", read,
		"WRITE", write,
		"__KEY__", jsString(c.Key),
		"__CLASS__", jsString(c.DarkClass),
		"__DEFAULT__", jsString(string(c.Default)),
		"__DELAY__", strconv.FormatInt(c.AnnounceDelay.Milliseconds(), 10),
		"__FAILED__", jsString(ToggleFailedAnnouncement),
	)
}

// PrePaintScript returns the snippet to inline in <head> ahead of any
// stylesheet.
func PrePaintScript(cfg InjectorConfig) string {
	cfg = cfg.withDefaults()
	return cfg.replacer().Replace(prePaintTemplate)
}

// BehaviorScript returns the deferred script that mounts the in-browser
// controller and wires the toggle control.
func BehaviorScript(cfg InjectorConfig) string {
	cfg = cfg.withDefaults()
	return cfg.replacer().Replace(behaviorTemplate)
}
