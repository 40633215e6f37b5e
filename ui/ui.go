// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package ui provides the HTML snippets adhoc pages are built from.
//
// Every function returns a [templ.Component]. Text passed as a string is
// escaped; use [Raw] to include markup verbatim.
package ui

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// attr is an HTML attribute. Boolean attributes are rendered without a value.
type attr struct {
	name, value string
	boolean     bool
}

func a(name, value string) attr { return attr{name: name, value: value} }

func boolAttr(name string) attr { return attr{name: name, boolean: true} }

// element renders <tag attrs...>children</tag>.
func element(tag string, attrs []attr, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		sb.WriteString("<" + tag)
		for _, at := range attrs {
			sb.WriteString(" " + at.name)
			if !at.boolean {
				sb.WriteString(`="` + templ.EscapeString(at.value) + `"`)
			}
		}
		sb.WriteString(">")
		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
		for _, c := range children {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// Text renders s as escaped text.
func Text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// Raw renders html without escaping.
func Raw(html string) templ.Component { return templ.Raw(html) }

// Group renders children one after another.
func Group(children ...templ.Component) templ.Component { return templ.Join(children...) }

// Strong renders children in bold.
func Strong(children ...templ.Component) templ.Component {
	return element("strong", nil, children...)
}

// Menu renders a list of [MenuItem] links.
func Menu(children ...templ.Component) templ.Component {
	return element("div", []attr{a("class", "list-group my-4")}, children...)
}

// MenuItem renders a menu entry linking to href with a chevron on the right.
func MenuItem(href string, children ...templ.Component) templ.Component {
	return element("a", []attr{a("href", href), a("class", "list-group-item list-group-item-action d-flex")},
		element("span", []attr{a("style", "flex: 1 0 0")}, children...),
		element("span", []attr{a("class", "d-flex align-self-center"), a("style", "flex: none")}, Icon("codicon:chevron-right")),
	)
}

// Icon renders an Iconify icon, such as "codicon:output".
// See https://icon-sets.iconify.design/ for available names.
func Icon(name string) templ.Component {
	return element("iconify-icon", []attr{a("icon", name), boolAttr("inline")})
}

// P renders a paragraph.
func P(children ...templ.Component) templ.Component { return element("p", nil, children...) }

// Pre renders a preformatted code block with wrapped lines.
func Pre(children ...templ.Component) templ.Component {
	return element("pre", []attr{a("class", "p-3 rounded bg-light"), a("style", "letter-spacing: 0;"), boolAttr("wrap")},
		element("code", nil, children...),
	)
}

// Div renders a block with the given CSS classes.
func Div(class string, children ...templ.Component) templ.Component {
	if class == "" {
		return element("div", nil, children...)
	}
	return element("div", []attr{a("class", class)}, children...)
}

// FormPost renders a form submitted with POST to action.
func FormPost(action string, children ...templ.Component) templ.Component {
	return element("form", []attr{a("action", action), a("method", "post")}, children...)
}

// InputText renders a labelled text input. If label is empty, name is used.
func InputText(name, label string) templ.Component {
	if label == "" {
		label = name
	}
	return element("div", []attr{a("class", "mb-3")},
		element("label", []attr{a("for", name), a("class", "form-label fw-bold text-muted")}, Text(label)),
		templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			n := templ.EscapeString(name)
			_, err := io.WriteString(w, `<input type="text" class="form-control" id="`+n+`" name="`+n+`">`)
			return err
		}),
	)
}

// Buttons renders a row of buttons. Without children it renders a single
// [SubmitButton].
func Buttons(children ...templ.Component) templ.Component {
	if len(children) == 0 {
		children = []templ.Component{SubmitButton()}
	}
	return element("div", []attr{a("class", "d-flex gap-2")}, children...)
}

// SubmitButton renders a primary submit button labelled "Submit form"
// unless children are given.
func SubmitButton(children ...templ.Component) templ.Component {
	if len(children) == 0 {
		children = []templ.Component{Text("Submit form")}
	}
	return element("button", []attr{a("type", "submit"), a("class", "btn btn-primary")}, children...)
}

// Quote renders a quotation with its author.
func Quote(content, author string) templ.Component {
	return element("figure", []attr{a("class", "mt-4")},
		element("blockquote", []attr{a("class", "blockquote")},
			element("p", []attr{a("class", "fs-3")}, Text(content)),
		),
		element("figcaption", []attr{a("class", "blockquote-footer")},
			element("cite", nil, Text(author)),
		),
	)
}
