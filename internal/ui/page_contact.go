package ui

import (
	"net/http"
	"strconv"

	"portfolio/internal/contact"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// contactForm is the state of the contact page after a submit.
type contactForm struct {
	Values  contact.Submission
	Flash   string
	Success bool
}

func contactBody(r *http.Request, form contactForm, configured bool) []Node {
	v := form.Values
	var flash Node
	if form.Flash != "" {
		className := "flash flash-error"
		if form.Success {
			className = "flash flash-success"
		}
		flash = Div(Class(className), Role("status"), Aria("live", "polite"), Text(form.Flash))
	}

	return []Node{
		H1(Text("Contact")),
		If(!configured, P(Class("muted"), Text("The contact form is currently unavailable."))),
		flash,
		Form(
			Method("post"),
			Action("/contact"),
			Class(cardClass("contact-form")),
			csrfField(r),
			formField("name", "Name", "text", v.Name, contact.MaxNameLen, true),
			formField("email", "Email", "email", v.Email, contact.MaxEmailLen, true),
			formField("subject", "Subject", "text", v.Subject, contact.MaxSubjectLen, true),
			Div(
				Class("form-field"),
				Label(For("contact-message"), Text("Message")),
				Textarea(
					ID("contact-message"),
					Name("message"),
					Attr("rows", "8"),
					Attr("maxlength", strconv.Itoa(contact.MaxMessageLen)),
					Required(),
					Text(v.Message),
				),
			),
			Button(Type("submit"), Class("btn"), Text("Send message")),
		),
	}
}

func formField(name, label, inputType, value string, maxLen int, required bool) Node {
	id := "contact-" + name
	return Div(
		Class("form-field"),
		Label(For(id), Text(label)),
		Input(
			ID(id),
			Type(inputType),
			Name(name),
			Value(value),
			Attr("maxlength", strconv.Itoa(maxLen)),
			If(required, Required()),
		),
	)
}
