// Package tiff parses the directory structure of a TIFF or BigTIFF
// whole-slide image: the file header, the IFD chain, and the tags that
// describe pyramid geometry and tiling. It never decodes pixel data.
package tiff
