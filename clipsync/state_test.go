package clipsync

import "testing"

func TestStateRecordAndLookup(t *testing.T) {
	st := NewState()

	if _, ok := st.Lookup("c1"); ok {
		t.Fatal("Lookup on empty state returned a record")
	}

	st.Record("c1", MessageRecord{Content: "one", Handle: "h1"})
	st.Record("c2", MessageRecord{Content: "two", Handle: "h2"})

	rec, ok := st.Lookup("c1")
	if !ok || rec.Content != "one" || rec.Handle != "h1" {
		t.Fatalf("Lookup(c1) = %+v, %v", rec, ok)
	}
	if got := st.PostedIDs(); len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Fatalf("PostedIDs() = %v, want [c1 c2]", got)
	}
}

func TestStateRecordSameIDKeepsOrder(t *testing.T) {
	st := NewState()
	st.Record("c1", MessageRecord{Content: "one", Handle: "h1"})
	// An edit replaces the record but must not extend the ordered list or
	// hand out a second slot for the same clip id.
	st.Record("c1", MessageRecord{Content: "one!!", Handle: "h1"})

	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
	rec, _ := st.Lookup("c1")
	if rec.Content != "one!!" {
		t.Errorf("Lookup(c1).Content = %q, want updated content", rec.Content)
	}
	if rec.Handle != "h1" {
		t.Errorf("Lookup(c1).Handle = %q, want h1", rec.Handle)
	}
}

func TestStateEveryOrderedIDHasMessage(t *testing.T) {
	st := NewState()
	ids := []string{"a", "b", "c", "b", "a"}
	for _, id := range ids {
		st.Record(id, MessageRecord{Content: id, Handle: "h-" + id})
	}
	for _, id := range st.PostedIDs() {
		if _, ok := st.Lookup(id); !ok {
			t.Errorf("ordered id %q has no message record", id)
		}
	}
	if st.Len() != 3 {
		t.Errorf("Len() = %d, want 3 distinct ids", st.Len())
	}
}
