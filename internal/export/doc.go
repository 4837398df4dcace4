// Package export renders stored or live frames to image formats.
package export
