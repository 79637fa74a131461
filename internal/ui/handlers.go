package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"portfolio/internal/contact"
)

// Home renders the biography page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, h.page(r, "", "home", homeBody(h.Library.Site())...))
}

// Projects renders the project index, filtered by ?q=.
func (h *Handler) Projects(w http.ResponseWriter, r *http.Request) {
	body := projectsBody(h.Library.Site(), r.URL.Query().Get("q"))
	renderHTML(w, http.StatusOK, h.page(r, "Projects", "projects", body...))
}

// ProjectDetail renders one project.
func (h *Handler) ProjectDetail(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Library.Site().Project(chi.URLParam(r, "slug"))
	if !ok {
		h.NotFound(w, r)
		return
	}
	renderHTML(w, http.StatusOK, h.page(r, p.Title, "projects", projectDetailBody(p)...))
}

// ContactPage renders an empty contact form.
func (h *Handler) ContactPage(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, h.page(r, "Contact", "contact", contactBody(r, contactForm{}, h.contactConfigured())...))
}

// ContactSubmit relays the form. The form is re-rendered with the outcome;
// values are kept unless the message went out.
func (h *Handler) ContactSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request", "The form could not be read.")
		return
	}
	sub := contact.Submission{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	}

	err := contact.ErrNotConfigured
	if h.Relay != nil {
		err = h.Relay.Send(r.Context(), sub)
	}

	form := contactForm{Values: sub, Flash: contact.PublicMessage(err), Success: err == nil}
	if err == nil {
		form.Values = contact.Submission{}
	}
	status := contact.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Warn("contact form failed", "status", status, "error", err)
	}
	renderHTML(w, status, h.page(r, "Contact", "contact", contactBody(r, form, h.contactConfigured())...))
}

func (h *Handler) contactConfigured() bool {
	return h.Relay != nil && h.Relay.Configured()
}
