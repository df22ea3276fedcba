package clipsync

// MessageRecord is what the state store remembers about one delivered clip:
// the last content sent and the webhook message handle used for later edits.
type MessageRecord struct {
	Content string
	Handle  string
}

// State is the per-broadcaster in-memory mapping from clip id to the outbound
// message it produced, plus the insertion-ordered record of handled clip ids.
// It lives for the process lifetime of one broadcaster's recurring job and is
// mutated only inside Engine.Run, sequentially within one invocation.
//
// Retention is unbounded: only ids still inside the polling window are ever
// looked up again, so old entries are inert.
type State struct {
	order    []string
	messages map[string]MessageRecord
}

func NewState() *State {
	return &State{messages: make(map[string]MessageRecord)}
}

// Lookup returns the stored record for a clip id.
func (s *State) Lookup(clipID string) (MessageRecord, bool) {
	rec, ok := s.messages[clipID]
	return rec, ok
}

// Record stores the message for a clip id. A first-seen id is appended to the
// ordered list; a known id only has its record replaced, so re-fetching the
// same clip in a later window maps to the same entry.
func (s *State) Record(clipID string, rec MessageRecord) {
	if _, ok := s.messages[clipID]; !ok {
		s.order = append(s.order, clipID)
	}
	s.messages[clipID] = rec
}

// Len returns how many distinct clips have been delivered.
func (s *State) Len() int { return len(s.order) }

// PostedIDs returns the handled clip ids in insertion order.
func (s *State) PostedIDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
