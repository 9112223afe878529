package audioprobe

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/simonhull/audioprobe/internal/registry"
	"github.com/simonhull/audioprobe/internal/text"
	"github.com/simonhull/audioprobe/internal/types"

	// Format parsers register themselves at init time.
	_ "github.com/simonhull/audioprobe/internal/aiff"
	_ "github.com/simonhull/audioprobe/internal/flac"
	_ "github.com/simonhull/audioprobe/internal/id3"
	_ "github.com/simonhull/audioprobe/internal/mp4"
	_ "github.com/simonhull/audioprobe/internal/ogg"
	_ "github.com/simonhull/audioprobe/internal/wave"
	_ "github.com/simonhull/audioprobe/internal/wma"
)

// File holds everything extracted from one audio file: tags, technical
// stream properties, embedded images and the warnings parsing raised
// along the way.
type File = types.File

// Open opens an audio file and reads its metadata.
//
// The whole file is parsed up front and the handle is closed before
// Open returns; the returned File holds no resources.
//
// If the file is corrupted but salvageable, Open returns a partial
// File with warnings instead of an error. Check File.Warnings for
// details.
//
// Example:
//
//	file, err := audioprobe.Open("song.mp3")
//	if err != nil {
//		return err
//	}
//	fmt.Printf("%s - %s\n", file.Tags.Artist, file.Tags.Title)
func Open(path string, opts ...Option) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	return OpenReader(f, stat.Size(), path, opts...)
}

// OpenReader reads metadata from an io.ReaderAt. The path is used for
// error messages and for extension-based format detection only.
func OpenReader(r io.ReaderAt, size int64, path string, opts ...Option) (*File, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	parserOpts := registry.Default()
	parserOpts.ReadTags = options.readTags
	parserOpts.LoadImages = options.loadImages
	if options.encodingName != "" {
		enc, err := text.ByName(options.encodingName)
		if err != nil {
			return nil, err
		}
		parserOpts.Encoding = enc
	}

	format, err := DetectFormat(r, size, path)
	if err != nil {
		return nil, err
	}

	parser := registry.Get(format)
	if parser == nil {
		return nil, &UnsupportedFormatError{
			Path:   path,
			Reason: fmt.Sprintf("no parser available for format %s", format),
		}
	}

	file, err := parser.Parse(r, size, path, parserOpts)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", format, err)
	}

	file.Path = path
	file.Format = format
	file.Size = size

	if options.strictParsing && len(file.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", file.Warnings[0].Message)
	}
	if options.ignoreWarnings {
		file.Warnings = nil
	}

	return file, nil
}

// OpenContext opens a file with context support for cancellation.
//
// The context is checked before parsing starts. Parsing one file is
// fast enough that incremental cancellation is not worth its cost.
func OpenContext(ctx context.Context, path string, opts ...Option) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple audio files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. If any
// file fails, the first error is returned and the remaining results
// are discarded.
//
// Example:
//
//	files, err := audioprobe.OpenMany(ctx, paths...)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, f := range files {
//		fmt.Printf("%s: %s - %s\n", f.Format, f.Tags.Artist, f.Tags.Title)
//	}
func OpenMany(ctx context.Context, paths ...string) ([]*File, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			file, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
