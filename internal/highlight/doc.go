// Package highlight renders raw service responses as highlighted HTML.
// It uses the Chroma library to do this work.
package highlight
