// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
)

type errorData struct {
	StatusCode int
	StatusText string
	Error      error // set only for trusted requests
}

func errorPage(data errorData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := templ.EscapeString(fmt.Sprintf("%d %s", data.StatusCode, data.StatusText))
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<h1>%s</h1>
`, title, title); err != nil {
			return err
		}
		if data.Error != nil {
			if _, err := fmt.Fprintf(w, "<pre><code>%s</code></pre>\n", templ.EscapeString(data.Error.Error())); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}
