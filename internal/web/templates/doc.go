// Package templates holds the HTML components served by the web package.
// Edit the .templ sources and run `mage generate` to refresh the _templ.go
// files.
package templates
