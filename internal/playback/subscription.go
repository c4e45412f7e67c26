package playback

const eventBufferSize = 16

// Subscription provides event channels for a subscriber.
//
// Changed always holds the most recent session snapshot: an unread snapshot
// is replaced rather than queued, so slow readers never see stale state and
// never block the controller.
type Subscription struct {
	Changed      <-chan Session
	TrackChanged <-chan TrackChange
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	// Internal write channels
	sessionCh chan Session
	trackCh   chan TrackChange
	errorCh   chan ErrorEvent
	doneCh    chan struct{}
}

// newSubscription creates a new subscription with buffered channels.
func newSubscription() *Subscription {
	s := &Subscription{
		sessionCh: make(chan Session, 1),
		trackCh:   make(chan TrackChange, eventBufferSize),
		errorCh:   make(chan ErrorEvent, eventBufferSize),
		doneCh:    make(chan struct{}),
	}
	s.Changed = s.sessionCh
	s.TrackChanged = s.trackCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

// close signals subscribers to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// sendSession replaces any unread snapshot with sess.
// Callers serialise sends, so the slot is free after the drain.
func (s *Subscription) sendSession(sess Session) {
	select {
	case <-s.sessionCh:
	default:
	}
	select {
	case s.sessionCh <- sess:
	default:
	}
}

// sendTrack sends a track change event (non-blocking).
func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
		// Drop if buffer full
	}
}

// sendError sends an error event (non-blocking).
func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
