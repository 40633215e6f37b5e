// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package view

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"go.astrophena.name/adhoc/ui"
	"go.astrophena.name/adhoc/web"
)

const (
	bootstrapCSS       = "https://cdn.jsdelivr.net/npm/bootstrap@5.2.3/dist/css/bootstrap.min.css"
	bootstrapIntegrity = "sha384-rbsA2VBKQhggwzxH7pPCaAqO46MgnOM80zW1RWuH61DGLwZJEdK2Kadq2F9CUG65"
	iconifyScript      = "https://code.iconify.design/iconify-icon/1.0.2/iconify-icon.min.js"
)

// CSP is the Content Security Policy pages rendered by [Handle] need. It
// extends [web.DefaultCSP] with the stylesheet and icon CDNs.
var CSP = web.DefaultCSP().Extend(web.CSP{
	StyleSrc:   []string{web.CSPSelf, web.CSPUnsafeInline, "https://cdn.jsdelivr.net"},
	ScriptSrc:  []string{"https://code.iconify.design"},
	ConnectSrc: []string{web.CSPSelf, "https://api.iconify.design", "https://api.simplesvg.com", "https://api.unisvg.com"},
})

// logs renders debug lines below the page output.
func logs(lines []string) templ.Component {
	if len(lines) == 0 {
		return ui.Group()
	}
	pres := make([]templ.Component, 0, len(lines))
	for _, l := range lines {
		pres = append(pres, ui.Pre(ui.Text(l)))
	}
	return ui.Group(
		ui.Div("mt-5 mb-2 text-muted", ui.Icon("codicon:output"), ui.Text(" "), ui.Strong(ui.Text("Logs"))),
		ui.Div("fs-6", pres...),
	)
}

func page(title string, output []templ.Component, lines []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t := templ.EscapeString(title)
		if _, err := io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta http-equiv="X-UA-Compatible" content="IE=edge">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>`+t+`</title>
<link href="`+bootstrapCSS+`" rel="stylesheet" integrity="`+bootstrapIntegrity+`" crossorigin="anonymous">
<link rel="icon" href="`+web.StaticPrefix+`favicon.svg">
</head>
<body style="letter-spacing: 0.05em">
<div class="container py-4 fs-5">
<h1>`+t+`</h1>
`); err != nil {
			return err
		}
		for _, c := range output {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		if err := logs(lines).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `
</div>
<script src="`+iconifyScript+`"></script>
</body>
</html>
`)
		return err
	})
}
