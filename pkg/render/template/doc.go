// Package template defines the template engine seam used by the HTML
// renderers. The gotemplate subpackage implements it with pongo2.
package template
