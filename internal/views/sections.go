package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// WaitlistAnchor is the id of the section holding both forms.
const WaitlistAnchor = "waitlist"

func Hero() g.Node {
	return Section(
		Class("hero"),
		H1(g.Text("CampusCabs")),
		P(g.Text("State College rides, done right.")),
	)
}

var problemPoints = []string{
	"Uber takes a big cut of every ride",
	"Drivers lose 30–40% of each fare",
	"Prices get inflated to cover driver costs",
	"Riders end up paying more",
}

var solutionPoints = []string{
	"Flat subscription for drivers—no per-ride cut",
	"Drivers keep 80–90% of every fare",
	"No inflated prices",
	"Riders pay less",
}

func pointList(id, heading string, points []string) g.Node {
	return Section(
		g.Attr("aria-labelledby", id),
		H2(ID(id), g.Text(heading)),
		Ul(
			Class("points"),
			g.Group(g.Map(points, func(point string) g.Node {
				return Li(g.Text(point))
			})),
		),
	)
}

func Problem() g.Node {
	return pointList("problem-heading", "The problem", problemPoints)
}

func Solution() g.Node {
	return pointList("solution-heading", "The solution", solutionPoints)
}

func BottomCTA() g.Node {
	return Section(
		Class("cta"),
		A(Href("#"+WaitlistAnchor), Class("btn btn-outline"), g.Text("Join the waitlist")),
	)
}
