package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type PageConfig struct {
	Title       string
	Description string
}

const (
	defaultTitle       = "CampusCabs — Rides Built for Penn State"
	defaultDescription = "Student-founded rideshare for State College. Cheaper rides, no platform cut. Join the waitlist."
)

const styles = `
:root { color-scheme: light dark; --fg: #18181b; --muted: #52525b; --bg: #fafafa; --accent: #18181b; --error: #b91c1c; --ok: #15803d; }
@media (prefers-color-scheme: dark) { :root { --fg: #fafafa; --muted: #a1a1aa; --bg: #000; --accent: #f4f4f5; --error: #f87171; --ok: #4ade80; } }
body { margin: 0; font-family: system-ui, sans-serif; background: var(--bg); color: var(--fg); }
main { max-width: 48rem; margin: 0 auto; padding: 4rem 1.5rem; }
.hero { text-align: center; padding: 4rem 0; }
.hero h1 { font-size: 2.5rem; margin: 0; }
.hero p, .points li { color: var(--muted); }
.forms { display: grid; gap: 2rem; grid-template-columns: repeat(auto-fit, minmax(18rem, 1fr)); }
.field { display: flex; flex-direction: column; gap: .25rem; margin-bottom: 1rem; }
.field input { padding: .5rem .75rem; border: 1px solid #d4d4d8; border-radius: .5rem; }
.field input[aria-invalid="true"] { border-color: var(--error); }
.error { color: var(--error); font-size: .875rem; margin: 0; }
.thanks { color: var(--ok); font-size: 1.125rem; }
.btn { width: 100%; padding: .75rem 1.25rem; border-radius: 9999px; border: 0; background: var(--accent); color: var(--bg); font-weight: 600; cursor: pointer; }
.btn-outline { display: inline-block; width: auto; background: transparent; color: var(--fg); border: 2px solid var(--accent); text-decoration: none; }
.toggle { margin-bottom: 1rem; background: transparent; border: 1px solid #d4d4d8; border-radius: 9999px; padding: .375rem .875rem; color: var(--fg); cursor: pointer; }
.cta { text-align: center; padding: 4rem 0; }
`

func Layout(config PageConfig, content ...g.Node) g.Node {
	if config.Title == "" {
		config.Title = defaultTitle
	}

	if config.Description == "" {
		config.Description = defaultDescription
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		HTML(
			Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1.0")),
				TitleEl(g.Text(config.Title)),
				Meta(Name("description"), Content(config.Description)),

				Meta(g.Attr("property", "og:title"), Content(config.Title)),
				Meta(g.Attr("property", "og:description"), Content(config.Description)),
				Meta(g.Attr("property", "og:type"), Content("website")),

				StyleEl(g.Raw(styles)),
			),
			Body(
				Main(g.Group(content)),
			),
		),
	})
}
