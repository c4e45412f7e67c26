package media

import (
	"context"
	"time"
)

// Probe returns the playing time of the source at locator. It decodes the
// stream headers without playing anything; a stream of unknown length
// reports 0.
func (f *Fetcher) Probe(ctx context.Context, locator string) (time.Duration, error) {
	p, err := f.Fetch(ctx, locator)
	if err != nil {
		return 0, err
	}
	s, format, err := decode(p.Data, p.Format)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	n := s.Len()
	if n <= 0 {
		return 0, nil
	}
	return format.SampleRate.D(n), nil
}
