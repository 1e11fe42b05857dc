package tiff

import (
	"log"
	"os"
)

// Logger receives the non-fatal warnings this package emits (unrecognised
// tag data types, tile-size inconsistencies between pyramid levels, and the
// fallback to the hard-coded MPP baseline). Callers may redirect or
// silence it, e.g. Logger.SetOutput(io.Discard).
var Logger = log.New(os.Stderr, "", log.LstdFlags)
