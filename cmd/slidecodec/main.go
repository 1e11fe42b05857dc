// Command slidecodec exercises the wire codec against a real slide: it
// opens a TIFF/BigTIFF file, serializes its directory to the wire format,
// deserializes the result back, and reports the round trip.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jesperkers/slideviewer/tiff"
	"github.com/jesperkers/slideviewer/wire"
)

func main() {
	out := flag.String("out", "", "if set, write the serialized wire buffer to this path")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-out FILE] <path-to-tiff>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	file, err := tiff.Open(flag.Arg(0))
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer file.Close()

	buf, err := wire.Serialize(file)
	if err != nil {
		log.Fatalf("serialize: %v", err)
	}
	fmt.Printf("serialized %d IFDs into %d bytes\n", len(file.IFDs), len(buf))

	if *out != "" {
		if err := os.WriteFile(*out, buf, 0644); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}
	}

	roundTripped, err := wire.Deserialize(buf)
	if err != nil {
		log.Fatalf("deserialize: %v", err)
	}
	defer roundTripped.Close()

	fmt.Printf("deserialized %d IFDs, level count %d, main image %d\n",
		len(roundTripped.IFDs), roundTripped.LevelCount, roundTripped.MainImageIndex)
}
