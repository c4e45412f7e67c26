// Package importer adds local audio files to the catalog by reading their
// tags.
package importer

import (
	"context"
	"net/url"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/catalog"
)

// Saver stores imported tracks.
type Saver interface {
	SaveTrack(ctx context.Context, t catalog.Track) (catalog.Track, error)
}

// Prober measures the playing time of a media locator.
type Prober interface {
	Probe(ctx context.Context, locator string) (time.Duration, error)
}

// Failure is a file that could not be imported.
type Failure struct {
	Path string
	Err  error
}

// Report summarises a scan.
type Report struct {
	Imported []catalog.Track
	Failed   []Failure
}

// Progress is reported while files are processed.
type Progress struct {
	Current int
	Total   int
	Path    string
}

// Importer scans files and directories for audio and saves them as tracks.
type Importer struct {
	saver    Saver
	prober   Prober
	log      zerolog.Logger
	workers  int
	progress func(Progress)
}

// Option configures an Importer.
type Option func(*Importer)

// WithProber sets the duration probe. Without one, durations stay unknown
// and undecodable files are not detected.
func WithProber(p Prober) Option {
	return func(im *Importer) { im.prober = p }
}

// WithLogger sets the importer's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(im *Importer) { im.log = l }
}

// WithWorkers sets how many files are read in parallel.
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithProgress sets a callback invoked after each file. It runs on the
// scanning goroutine.
func WithProgress(fn func(Progress)) Option {
	return func(im *Importer) { im.progress = fn }
}

// New creates an importer saving through s.
func New(s Saver, opts ...Option) *Importer {
	im := &Importer{
		saver:   s,
		log:     log.Logger,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

type result struct {
	path  string
	track catalog.Track
	err   error
}

// Scan imports every audio file found under paths. Files that cannot be
// read or saved are listed in the report; the returned error is only set
// when ctx ends the scan early.
func (im *Importer) Scan(ctx context.Context, paths ...string) (Report, error) {
	files := discoverFiles(paths, im.log)

	workCh := make(chan string)
	resultCh := make(chan result)

	var wg sync.WaitGroup
	for range min(im.workers, max(len(files), 1)) {
		wg.Go(func() {
			for path := range workCh {
				t, err := im.buildTrack(ctx, path)
				resultCh <- result{path: path, track: t, err: err}
			}
		})
	}

	go func() {
		defer close(workCh)
		for _, f := range files {
			select {
			case workCh <- f:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var rep Report
	done := 0
	for r := range resultCh {
		done++
		if r.err == nil {
			r.track, r.err = im.saver.SaveTrack(ctx, r.track)
		}
		if r.err != nil {
			im.log.Warn().Err(r.err).Str("path", r.path).Msg("import failed")
			rep.Failed = append(rep.Failed, Failure{Path: r.path, Err: r.err})
		} else {
			rep.Imported = append(rep.Imported, r.track)
		}
		if im.progress != nil {
			im.progress(Progress{Current: done, Total: len(files), Path: r.path})
		}
	}

	im.log.Info().Int("imported", len(rep.Imported)).Int("failed", len(rep.Failed)).Msg("import finished")
	return rep, ctx.Err()
}

func (im *Importer) buildTrack(ctx context.Context, path string) (catalog.Track, error) {
	t, err := ReadTrack(path)
	if err != nil {
		return catalog.Track{}, err
	}
	if im.prober != nil {
		d, err := im.prober.Probe(ctx, t.MediaURL)
		if err != nil {
			return catalog.Track{}, errors.Wrap(err, "probe")
		}
		t.Duration = d
	}
	t.ID = uuid.NewString()
	return t, nil
}

// Locator returns the file:// locator of path.
func Locator(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
