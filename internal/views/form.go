package views

import (
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

const (
	IntentSubmit        = "submit"
	IntentToggleStudent = "toggle-student"
)

type FieldView struct {
	Name         string
	Label        string
	Type         string
	Value        string
	Error        string
	Placeholder  string
	AutoComplete string
	Required     bool
}

// FormView is everything needed to render one rider or driver form.
type FormView struct {
	Role              string
	Heading           string
	Action            string
	ShowStudentToggle bool
	IsPSUStudent      bool
	Fields            []FieldView
	SubmitError       string
	Submitted         bool
	SubmittedMessage  string
}

type PageData struct {
	Rider  FormView
	Driver FormView
}

func LandingPage(data PageData) g.Node {
	return Layout(
		PageConfig{},
		Hero(),
		Problem(),
		Solution(),
		WaitlistSection(data.Rider, data.Driver),
		BottomCTA(),
	)
}

func WaitlistSection(forms ...FormView) g.Node {
	return Section(
		ID(WaitlistAnchor),
		g.Attr("aria-labelledby", "waitlist-heading"),
		H2(ID("waitlist-heading"), g.Text("Join the waitlist")),
		Div(
			Class("forms"),
			g.Group(g.Map(forms, WaitlistForm)),
		),
	)
}

func WaitlistForm(view FormView) g.Node {
	headingID := view.Role + "-form-heading"

	if view.Submitted {
		return Div(
			g.Attr("aria-labelledby", headingID),
			H2(ID(headingID), g.Text(view.Heading)),
			P(Class("thanks"), g.Attr("role", "status"), g.Text(view.SubmittedMessage)),
		)
	}

	return FormEl(
		Method("post"),
		Action(view.Action+"#"+WaitlistAnchor),
		g.Attr("novalidate"),
		g.Attr("aria-labelledby", headingID),
		H2(ID(headingID), g.Text(view.Heading)),

		g.If(view.ShowStudentToggle, studentToggle(view.IsPSUStudent)),

		g.Group(g.Map(view.Fields, func(field FieldView) g.Node {
			return fieldInput(view.Role, field)
		})),

		g.If(view.SubmitError != "",
			P(Class("error"), g.Attr("role", "alert"), g.Text(view.SubmitError)),
		),

		Button(Type("submit"), Name("intent"), Value(IntentSubmit), Class("btn"), g.Text("Join the waitlist")),
	)
}

func studentToggle(isStudent bool) g.Node {
	label := "I'm a Penn State student"
	pressed := "false"
	if isStudent {
		label = "I'm not a Penn State student"
		pressed = "true"
	}

	return Button(
		Type("submit"),
		Name("intent"),
		Value(IntentToggleStudent),
		Class("toggle"),
		g.Attr("aria-pressed", pressed),
		g.Text(label),
	)
}

func fieldInput(role string, field FieldView) g.Node {
	inputID := role + "-" + field.Name
	errorID := inputID + "-error"

	inputType := field.Type
	if inputType == "" {
		inputType = "text"
	}

	return Div(
		Class("field"),
		Label(For(inputID), g.Text(field.Label)),
		Input(
			ID(inputID),
			Type(inputType),
			Name(field.Name),
			Value(field.Value),
			g.If(field.Placeholder != "", Placeholder(field.Placeholder)),
			g.If(field.AutoComplete != "", AutoComplete(field.AutoComplete)),
			g.If(field.Required, g.Attr("aria-required", "true")),
			g.If(field.Error != "", g.Group([]g.Node{
				g.Attr("aria-invalid", "true"),
				g.Attr("aria-describedby", errorID),
			})),
		),
		g.If(field.Error != "",
			P(ID(errorID), Class("error"), g.Attr("role", "alert"), g.Text(field.Error)),
		),
	)
}
