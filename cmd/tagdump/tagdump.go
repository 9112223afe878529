// Command tagdump prints the metadata of audio files as JSON, one
// object per file. Useful for eyeballing what the parsers extract.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/simonhull/audioprobe"
)

func main() {
	noTags := flag.Bool("no-tags", false, "skip textual metadata, report stream properties only")
	images := flag.Bool("images", false, "load embedded images and report their sizes")
	encoding := flag.String("encoding", "", "assumed encoding for legacy tags (e.g. windows-1252)")
	strict := flag.Bool("strict", false, "treat any warning as a fatal error")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tagdump [flags] <file>...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var opts []audioprobe.Option
	if *noTags {
		opts = append(opts, audioprobe.WithoutTags())
	}
	if *images {
		opts = append(opts, audioprobe.WithImages())
	}
	if *encoding != "" {
		opts = append(opts, audioprobe.WithTextEncoding(*encoding))
	}
	if *strict {
		opts = append(opts, audioprobe.WithStrictParsing())
	}

	exitCode := 0
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, path := range flag.Args() {
		if err := dump(enc, path, opts); err != nil {
			fmt.Fprintf(os.Stderr, "tagdump: %v\n", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func dump(enc *json.Encoder, path string, opts []audioprobe.Option) error {
	file, err := audioprobe.Open(path, opts...)
	if err != nil {
		return err
	}

	out := map[string]any{
		"path":   file.Path,
		"format": file.Format.String(),
		"fields": file.FlatMap(),
	}
	if n := file.Images.Count(); n > 0 {
		images := make([]map[string]any, 0, n)
		for _, group := range [][]audioprobe.Image{
			file.Images.FrontCover, file.Images.BackCover,
			file.Images.Leaflet, file.Images.Media, file.Images.Other,
		} {
			for _, img := range group {
				images = append(images, map[string]any{
					"kind": img.Name,
					"mime": img.MIMEType,
					"size": len(img.Data),
				})
			}
		}
		out["images"] = images
	}
	if len(file.Warnings) > 0 {
		warnings := make([]string, len(file.Warnings))
		for i, w := range file.Warnings {
			warnings[i] = w.String()
		}
		out["warnings"] = warnings
	}

	return enc.Encode(out)
}
