// Package build runs a web application's install and build commands and
// locates the static output they produce.
package build
