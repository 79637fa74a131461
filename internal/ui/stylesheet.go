package ui

import (
	"encoding/json"
	"io/fs"
	"path"
	"strings"
	"sync"

	"portfolio/internal/ui/assets"
)

const defaultStylesheetPath = "/static/css/site.css"

var (
	stylesheetPathOnce sync.Once
	stylesheetPath     = defaultStylesheetPath
)

// siteStylesheetHref returns the fingerprinted stylesheet named in
// static/css/manifest.json, falling back to site.css.
func siteStylesheetHref() string {
	stylesheetPathOnce.Do(func() {
		manifestBytes, err := fs.ReadFile(assets.StaticFS(), "static/css/manifest.json")
		if err != nil {
			return
		}

		manifest := map[string]string{}
		if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
			return
		}

		name := strings.TrimSpace(manifest["site.css"])
		if name == "" || path.Base(name) != name || path.Ext(name) != ".css" {
			return
		}
		stylesheetPath = "/static/css/" + name
	})
	return stylesheetPath
}
