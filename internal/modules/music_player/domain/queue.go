package domain

// Queue is an ordered FIFO sequence of pending tracks.
// It is owned by exactly one session: the session loop serializes every
// mutation, so the Queue itself carries no synchronization.
type Queue struct {
	tracks []Track
}

// NewQueue creates a new empty Queue.
func NewQueue() *Queue {
	return &Queue{
		tracks: make([]Track, 0),
	}
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty returns true if the queue has no pending tracks.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Append adds a track to the end of the queue.
func (q *Queue) Append(track Track) {
	q.tracks = append(q.tracks, track)
}

// PopFront removes and returns the first track.
// The second return value is false if the queue is empty.
func (q *Queue) PopFront() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}

	track := q.tracks[0]
	q.tracks = q.tracks[1:]
	return track, true
}

// Peek returns the first track without removing it.
// The second return value is false if the queue is empty.
func (q *Queue) Peek() (Track, bool) {
	if len(q.tracks) == 0 {
		return Track{}, false
	}
	return q.tracks[0], true
}

// Clear removes all pending tracks.
func (q *Queue) Clear() {
	q.tracks = make([]Track, 0)
}

// Snapshot returns a copy of up to limit pending tracks in order.
// A limit <= 0 returns all pending tracks. The queue is not mutated.
func (q *Queue) Snapshot(limit int) []Track {
	n := len(q.tracks)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]Track, n)
	copy(result, q.tracks[:n])
	return result
}
