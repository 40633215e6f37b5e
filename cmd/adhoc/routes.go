// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"errors"
	"fmt"
	"net/http"

	"go.astrophena.name/adhoc/encrypted"
	"go.astrophena.name/adhoc/ui"
	"go.astrophena.name/adhoc/view"
	"go.astrophena.name/adhoc/web"
)

func (a *app) routes(mux *http.ServeMux) {
	mux.Handle("GET /{$}", view.Handle(home))
	mux.Handle("GET /quote", view.Handle(a.quote))
	mux.Handle("GET /crash", view.Handle(crash))
	// /form is the old name of /encrypt.
	for _, path := range []string{"/encrypt", "/form"} {
		mux.Handle("GET "+path, view.Handle(encryptForm))
		mux.Handle("POST "+path, view.Handle(a.encrypt))
	}
	mux.Handle("GET /decrypt", view.Handle(decryptForm))
	mux.Handle("POST /decrypt", view.Handle(a.decrypt))
}

func home(v *view.View) error {
	v.Debug(
		"This is an example debug message.",
		"They are for diagnostic purposes.",
		"Debug messages are shown at the bottom of the rendered page.",
	)
	v.SetTitle("Home page")
	v.Add(
		ui.Raw("<strong>Welcome. </strong>"),
		ui.Text("This is a demo."),
		ui.Menu(
			ui.MenuItem("/quote", ui.Text("Get a random quote")),
			ui.MenuItem("/encrypt", ui.Text("Encrypt some text (form demo)")),
			ui.MenuItem("/decrypt", ui.Text("Decrypt an encrypted code")),
			ui.MenuItem("/crash", ui.Text("Test a route that does not work")),
		),
	)
	return nil
}

func (a *app) quote(v *view.View) error {
	v.Debug("GET", a.quotes.URL())
	q, err := a.quotes.Random(v.Context())
	if err != nil {
		return fmt.Errorf("%w: %w", web.ErrBadGateway, err)
	}
	v.Debugf("%+v", q)
	v.Add(ui.Quote(q.Content, q.Author))
	return nil
}

func crash(v *view.View) error {
	v.Debug(
		"Debug messages are still shown even if the route crashes.",
		"This can be useful when debugging a crashed route!",
	)
	panic("This is an example error.")
}

func encryptForm(v *view.View) error {
	v.Add(ui.FormPost("/encrypt",
		ui.P(ui.Text("Enter the text that you want to encrypt")),
		ui.InputText("text", ""),
		ui.Buttons(),
	))
	return nil
}

func (a *app) encrypt(v *view.View) error {
	text, err := v.RequiredParam("text")
	if err != nil {
		return err
	}
	code, err := a.box.Encrypt(text)
	if err != nil {
		return err
	}
	v.Add(
		ui.P(ui.Text("You can use the following code in your app to access the text:")),
		ui.Pre(ui.Text(encrypted.Wrap(code))),
	)
	return nil
}

func decryptForm(v *view.View) error {
	v.Add(ui.FormPost("/decrypt",
		ui.P(ui.Text("Enter a code produced by the encryption form")),
		ui.InputText("code", "Encrypted code"),
		ui.Buttons(ui.SubmitButton(ui.Text("Decrypt"))),
	))
	return nil
}

func (a *app) decrypt(v *view.View) error {
	code, err := v.RequiredParam("code")
	if err != nil {
		return err
	}
	text, err := a.box.Decrypt(code)
	if err != nil {
		if errors.Is(err, encrypted.ErrInvalidCode) || errors.Is(err, encrypted.ErrUnknownKey) || errors.Is(err, encrypted.ErrDecrypt) {
			return fmt.Errorf("%w: %w", web.ErrBadRequest, err)
		}
		return err
	}
	v.Add(
		ui.P(ui.Text("The code contains the following text:")),
		ui.Pre(ui.Text(text)),
	)
	return nil
}
