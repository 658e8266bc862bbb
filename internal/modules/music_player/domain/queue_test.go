package domain

import "testing"

func testTrack(title string) Track {
	return NewTrack("https://cdn.example.com/"+title, title, 180, "tester", "", "")
}

func TestQueue_AppendAndPopFront_FIFO(t *testing.T) {
	q := NewQueue()

	q.Append(testTrack("first"))
	q.Append(testTrack("second"))
	q.Append(testTrack("third"))

	if q.Len() != 3 {
		t.Fatalf("expected 3 tracks, got %d", q.Len())
	}

	for _, want := range []string{"first", "second", "third"} {
		track, ok := q.PopFront()
		if !ok {
			t.Fatalf("expected track %q, got empty", want)
		}
		if track.Title != want {
			t.Errorf("expected %q, got %q", want, track.Title)
		}
	}

	if !q.IsEmpty() {
		t.Error("expected queue to be empty after draining")
	}
}

func TestQueue_PopFront_Empty(t *testing.T) {
	q := NewQueue()

	track, ok := q.PopFront()
	if ok {
		t.Errorf("expected empty result, got %q", track.Title)
	}
}

func TestQueue_Peek_DoesNotMutate(t *testing.T) {
	q := NewQueue()
	q.Append(testTrack("only"))

	track, ok := q.Peek()
	if !ok || track.Title != "only" {
		t.Fatalf("expected to peek 'only', got %q (ok=%v)", track.Title, ok)
	}
	if q.Len() != 1 {
		t.Errorf("expected peek to leave queue untouched, len=%d", q.Len())
	}
}

func TestQueue_Peek_Empty(t *testing.T) {
	q := NewQueue()

	if _, ok := q.Peek(); ok {
		t.Error("expected no track from empty peek")
	}
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue()
	q.Append(testTrack("a"))
	q.Append(testTrack("b"))

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("expected empty queue after clear, len=%d", q.Len())
	}
}

func TestQueue_Snapshot(t *testing.T) {
	q := NewQueue()
	for _, title := range []string{"a", "b", "c", "d"} {
		q.Append(testTrack(title))
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"limited", 2, 2},
		{"all with zero limit", 0, 4},
		{"all with negative limit", -1, 4},
		{"limit beyond length", 10, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := q.Snapshot(tt.limit)
			if len(snap) != tt.want {
				t.Fatalf("expected %d tracks, got %d", tt.want, len(snap))
			}
			if snap[0].Title != "a" {
				t.Errorf("expected snapshot to start at front, got %q", snap[0].Title)
			}
		})
	}

	if q.Len() != 4 {
		t.Errorf("expected snapshot not to mutate queue, len=%d", q.Len())
	}
}
