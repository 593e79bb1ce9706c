package correlate

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/mredag/MPARB/internal/model/event"
)

// maxIDLength bounds upstream-supplied tokens; anything longer is
// replaced rather than truncated so the stored id stays opaque.
const maxIDLength = 128

// EnsureID returns the event with a correlation id assigned. An id
// already carried by the event is kept as-is when it is usable, so the
// id is issued exactly once per inbound event. This never fails: a
// missing or malformed upstream id is replaced with a fresh one.
func EnsureID(ev event.Event) event.Event {
	if usable(ev.CorrelationID) {
		return ev
	}
	ev.CorrelationID = uuid.NewString()
	return ev
}

func usable(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
