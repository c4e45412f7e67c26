package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
)

// ToggleFavorite adds or removes the current track from the user's
// favorites. The persistence call completes before IsFavorite flips; on
// failure IsFavorite is unchanged and the error is returned and published.
func (c *Controller) ToggleFavorite(ctx context.Context) error {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return ErrNoTrack
	}
	if c.user == nil {
		c.mu.Unlock()
		return ErrNoUser
	}
	userID, trackID, was := c.user.ID, c.current.ID, c.favorite
	c.mu.Unlock()

	var err error
	if was {
		err = c.store.RemoveFavorite(ctx, userID, trackID)
	} else {
		err = c.store.AddFavorite(ctx, userID, trackID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		err = errors.Wrap(err, "toggle favorite")
		c.log.Error().Err(err).Str("op", "favorite").Str("track_id", trackID).Msg("toggle favorite failed")
		c.metrics.PersistFailed("favorite")
		c.emitErrorLocked("favorite", trackID, err)
		return err
	}
	if c.current == nil || c.current.ID != trackID || c.user == nil || c.user.ID != userID {
		return nil
	}
	c.favoriteGen++
	c.favorite = !was
	c.publishLocked()
	return nil
}

// refreshFavoriteLocked resets IsFavorite and looks it up in the background.
// The result only applies if the same track and user are still current.
func (c *Controller) refreshFavoriteLocked() {
	c.favoriteGen++
	c.favorite = false
	if c.current == nil || c.user == nil || c.closed {
		return
	}
	gen, userID, trackID := c.favoriteGen, c.user.ID, c.current.ID

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
		defer cancel()
		fav, err := c.store.IsFavorite(ctx, userID, trackID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.log.Warn().Err(err).Str("op", "is_favorite").Str("track_id", trackID).Msg("favorite lookup failed")
			c.metrics.PersistFailed("is_favorite")
			return
		}
		if gen != c.favoriteGen {
			return
		}
		c.favorite = fav
		c.publishLocked()
	}()
}

// logRecentlyPlayedLocked records listening progress without waiting.
func (c *Controller) logRecentlyPlayedLocked(trackID string, progress int) {
	if c.user == nil || c.closed {
		return
	}
	userID := c.user.ID
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.persistProgress(userID, trackID, progress)
	}()
}

func (c *Controller) persistProgress(userID, trackID string, progress int) {
	ctx, cancel := context.WithTimeout(context.Background(), c.persistTimeout)
	defer cancel()
	if err := c.store.LogRecentlyPlayed(ctx, userID, trackID, progress); err != nil {
		c.log.Warn().Err(err).Str("op", "recently_played").Str("track_id", trackID).
			Int("progress", progress).Msg("log recently played failed")
		c.metrics.PersistFailed("recently_played")
	}
}

// restartProgressLocked stops the progress loop and starts a new one if a
// track is playing on behalf of a user.
func (c *Controller) restartProgressLocked() {
	c.stopProgressLocked()
	if c.closed || c.current == nil || !c.playing || c.user == nil || c.progressInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	c.progressStop = stop
	userID, trackID := c.user.ID, c.current.ID

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runProgress(stop, userID, trackID)
	}()
}

func (c *Controller) stopProgressLocked() {
	if c.progressStop != nil {
		close(c.progressStop)
		c.progressStop = nil
	}
}

func (c *Controller) runProgress(stop chan struct{}, userID, trackID string) {
	ticker := time.NewTicker(c.progressInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		c.mu.Lock()
		if c.progressStop != stop {
			c.mu.Unlock()
			return
		}
		progress := int(c.el.CurrentTime() / time.Second)
		c.mu.Unlock()

		c.persistProgress(userID, trackID, progress)
	}
}
