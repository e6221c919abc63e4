// Package normalisers provides implementations of the Normaliser interface.
// A normaliser turns an uploaded file into the plain text that gets chunked.
package normalisers
