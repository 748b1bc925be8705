package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func ErrorPage(message string) g.Node {
	return Layout(
		PageConfig{},
		Hero(),
		Section(
			Class("cta"),
			P(Class("error"), g.Attr("role", "alert"), g.Text(message)),
			A(Href("/"), Class("btn btn-outline"), g.Text("Back to the waitlist")),
		),
	)
}
