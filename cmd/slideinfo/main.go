// Command slideinfo opens a TIFF/BigTIFF whole-slide image and prints a
// summary of its pyramid: every IFD's role, geometry, and tiling.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jesperkers/slideviewer/tiff"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <path-to-tiff>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	file, err := tiff.Open(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	fmt.Println(flag.Arg(0))
	fmt.Printf("BigTIFF: %t, big-endian: %t\n", file.Header.IsBigTiff, file.Header.IsBigEndian)
	fmt.Printf("IFDs: %d, levels: %d, main: %d, macro: %d, label: %d\n",
		len(file.IFDs), file.LevelCount, file.MainImageIndex, file.MacroImageIndex, file.LabelImageIndex)
	fmt.Printf("Level 0 resolution: %.4f x %.4f um/pixel\n\n", file.MppX, file.MppY)

	for _, ifd := range file.IFDs {
		fmt.Printf("- IFD %d (%s)\n", ifd.Index, ifd.SubimageType)
		fmt.Printf("  size: %d x %d\n", ifd.ImageWidth, ifd.ImageHeight)
		if ifd.TileWidth > 0 {
			fmt.Printf("  tiles: %d x %d (%d x %d tiles, %d total)\n",
				ifd.TileWidth, ifd.TileHeight, ifd.WidthInTiles, ifd.HeightInTiles, ifd.TileCount)
		}
		fmt.Printf("  compression: %d, colorspace: %d\n", ifd.Compression, ifd.ColorSpace)
		if ifd.SubimageType == tiff.SubimageLevel {
			fmt.Printf("  resolution: %.4f x %.4f um/pixel, magnification: %.1f\n",
				ifd.UmPerPixelX, ifd.UmPerPixelY, ifd.LevelMagnification)
		}
		if ifd.ImageDescription != "" {
			fmt.Printf("  description: %s\n", ifd.ImageDescription)
		}
		fmt.Println()
	}
}
