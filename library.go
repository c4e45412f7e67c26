package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/errmsg"
	"github.com/llehouerou/soundwave/internal/importer"
	"github.com/llehouerou/soundwave/internal/media"
	"github.com/llehouerou/soundwave/internal/playback"
	"github.com/llehouerou/soundwave/internal/store"
)

func importFiles(ctx context.Context, st *store.Store, paths []string, workers int) error {
	im := importer.New(st,
		importer.WithProber(media.NewFetcher()),
		importer.WithLogger(log.Logger.With().Str("component", "importer").Logger()),
		importer.WithWorkers(workers),
		importer.WithProgress(func(p importer.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%d/%d] scanning", p.Current, p.Total)
		}),
	)
	report, err := im.Scan(ctx, paths...)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %s tracks\n", humanize.Comma(int64(len(report.Imported))))
	if len(report.Failed) > 0 {
		fmt.Printf("Skipped %d files:\n", len(report.Failed))
		for _, f := range report.Failed {
			fmt.Println("  " + errmsg.FormatWith(errmsg.OpImportFile, f.Path, f.Err))
		}
	}
	return nil
}

func listTracks(ctx context.Context, st *store.Store) error {
	tracks, err := st.Tracks(ctx, catalog.Filter{
		ContentType: catalog.ContentType(*tracksType),
		Query:       *tracksQuery,
		Category:    *tracksCategory,
		Limit:       *tracksLimit,
	})
	if err != nil {
		return err
	}
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "ID\tTYPE\tTITLE\tBY\tLENGTH")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.ContentType, t.Title, t.Subject(), trackLength(t))
	}
	return w.Flush()
}

func listRecent(ctx context.Context, st *store.Store, userID string, limit int) error {
	entries, err := st.RecentlyPlayed(ctx, userID, limit)
	if err != nil {
		return err
	}
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "PLAYED\tTITLE\tBY\tPROGRESS")
	for _, e := range entries {
		progress := playback.FormatClock(time.Duration(e.Progress) * time.Second)
		if e.Track.Duration > 0 {
			progress += " / " + playback.FormatClock(e.Track.Duration)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(e.PlayedAt), e.Track.Title, e.Track.Subject(), progress)
	}
	return w.Flush()
}

func listFavorites(ctx context.Context, st *store.Store, userID string) error {
	favorites, err := st.Favorites(ctx, userID)
	if err != nil {
		return err
	}
	w := newTable(os.Stdout)
	fmt.Fprintln(w, "ADDED\tTITLE\tBY\tLENGTH")
	for _, f := range favorites {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(f.CreatedAt), f.Track.Title, f.Track.Subject(), trackLength(f.Track))
	}
	return w.Flush()
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

func trackLength(t catalog.Track) string {
	if t.Duration <= 0 {
		return playback.FormatClock(playback.UnknownDuration)
	}
	return playback.FormatClock(t.Duration)
}
