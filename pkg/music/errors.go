package music

import (
	"errors"
	"strings"
)

// InfoError is a user-facing, non-fatal failure condition. The dispatch
// boundary renders these as styled replies; they are never logged as bugs.
type InfoError struct {
	msg string
}

func (e *InfoError) Error() string {
	return e.msg
}

// Info creates a new informational error
func Info(msg string) error {
	return &InfoError{msg: msg}
}

// IsInfo reports whether err is an informational error
func IsInfo(err error) bool {
	var ie *InfoError
	return errors.As(err, &ie)
}

// Informational failure conditions shared across commands and buttons
var (
	ErrNoQueue         = Info("there is no active music queue in this server")
	ErrNothingPlaying  = Info("nothing is currently playing")
	ErrQueueEmpty      = Info("the queue is empty")
	ErrAlreadyPaused   = Info("playback is already paused")
	ErrNotPaused       = Info("playback is not paused")
	ErrNoResults       = Info("no results found for that query")
	ErrSeekOutOfRange  = Info("cannot seek past the end of the current song")
	ErrSeekNotSeekable = Info("the current song cannot be seeked")
	ErrNotInVoice      = Info("you must be in a voice channel to use this command")
)

// playbackErrors maps substrings of player exception messages to specific
// user-facing explanations. Unmatched messages fall back to a generic reply
// and are logged verbatim by the caller.
var playbackErrors = []struct {
	match   string
	message string
}{
	{"private", "That video is private and cannot be played."},
	{"age", "That video is age-restricted and cannot be played."},
	{"forbidden", "Access to that video is forbidden."},
	{"unavailable", "That video is unavailable."},
	{"copyright", "That video was blocked on copyright grounds."},
	{"region", "That video is not available in the player's region."},
}

// genericPlaybackMessage is shown when no table entry matches
const genericPlaybackMessage = "Something went wrong while playing that song."

// MapPlaybackError translates a raw player error message into a user-facing
// one. The second return value reports whether a specific match was found.
func MapPlaybackError(raw string) (string, bool) {
	lowered := strings.ToLower(raw)
	for _, entry := range playbackErrors {
		if strings.Contains(lowered, entry.match) {
			return entry.message, true
		}
	}
	return genericPlaybackMessage, false
}
