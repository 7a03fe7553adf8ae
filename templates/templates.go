// Package templates provides the bundled book template.
package templates

import "embed"

// Files contains the default templates. They use Go html/template syntax
// and have a .tmpl suffix.
//
//go:embed *.tmpl
var Files embed.FS

// Book is the name of the default book template.
const Book = "book.html.tmpl"
