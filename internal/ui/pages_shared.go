package ui

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"portfolio/internal/theme"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type navItem struct {
	Label string
	Href  string
	Key   string
}

var navItems = []navItem{
	{Label: "About", Href: "/", Key: "home"},
	{Label: "Projects", Href: "/projects", Key: "projects"},
	{Label: "Contact", Href: "/contact", Key: "contact"},
}

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

func (h *Handler) siteName() string {
	if h.Library == nil {
		return "Portfolio"
	}
	return h.Library.Site().Profile.Name
}

// page is the layout shared by every page. The pre-paint snippet is the
// first script in <head> so the theme is on the root before anything paints.
func (h *Handler) page(r *http.Request, title, active string, body ...Node) Node {
	pt := h.pageTheme(r)
	cfg := h.Theme.Injector()
	name := h.siteName()

	fullTitle := name
	if title != "" {
		fullTitle = title + " | " + name
	}

	nav := make([]Node, 0, len(navItems))
	for _, item := range navItems {
		className := "site-nav-link"
		if item.Key == active {
			className += " active"
		}
		nav = append(nav, A(
			Href(item.Href),
			Class(className),
			If(item.Key == active, Aria("current", "page")),
			Text(item.Label),
		))
	}

	return HTML(
		Lang("en"),
		pt.rootAttrs(),
		Head(
			Meta(Charset("utf-8")),
			Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
			Meta(Name("color-scheme"), Content("light dark")),
			Script(Raw(theme.PrePaintScript(cfg))),
			TitleEl(Text(fullTitle)),
			If(h.BaseURL != "", Group([]Node{
				Link(Rel("canonical"), Href(h.BaseURL+r.URL.Path)),
				Meta(Attr("property", "og:url"), Content(h.BaseURL+r.URL.Path)),
				Meta(Attr("property", "og:title"), Content(fullTitle)),
			})),
			Link(Rel("icon"), Href("data:,")),
			Link(Rel("stylesheet"), Href(siteStylesheetHref())),
			El("noscript", StyleEl(Raw(".theme-toggle[data-placeholder] .icon{visibility:visible}"))),
			Script(Type("module"), Src(datastarSrc)),
		),
		Body(
			A(Href("#content"), Class("skip-link"), Text("Skip to content")),
			Header(
				Class("site-header"),
				A(Href("/"), Class("site-brand"), Text(name)),
				Nav(Class("site-nav"), Aria("label", "Main"), Group(nav)),
				themeToggle(r, pt),
			),
			Main(ID("content"), Class("site-main"), Group(body)),
			Footer(
				Class("site-footer"),
				P(Class("muted"), Text("© "+strconv.Itoa(time.Now().Year())+" "+name)),
			),
			Script(Raw(theme.BehaviorScript(cfg))),
		),
	)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	renderHTML(w, status, h.page(r, title, "",
		Section(
			Class("card error-card"),
			H1(Text(title)),
			P(Text(message)),
			P(A(Href("/"), Text("Back to the home page"))),
		),
	))
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found", "There is nothing at "+r.URL.Path+".")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2006")
}

func tagList(tags []string) Node {
	if len(tags) == 0 {
		return nil
	}
	items := make([]Node, 0, len(tags))
	for _, t := range tags {
		items = append(items, Li(Class("tag"), Text(t)))
	}
	return Ul(Class("tags"), Aria("label", "Tags"), Group(items))
}

func externalLink(href, label string) Node {
	return A(Href(href), Rel("noopener noreferrer"), Target("_blank"), Text(label))
}

// containsExpr is a datastar expression that shows an element while the
// quick filter $q is empty or occurs in value.
func containsExpr(value string) string {
	lower := strings.ToLower(value)
	return "$q === '' || " + strconv.Quote(lower) + ".includes($q.toLowerCase())"
}

func cardClass(extra ...string) string {
	return strings.Join(append([]string{"card"}, extra...), " ")
}
