package reply

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mredag/MPARB/internal/model/event"
)

// MaxReplyRunes is the exclusive upper bound on reply length: a reply
// must be strictly shorter than this many characters.
const MaxReplyRunes = 500

var (
	ErrReplyTooLong    = errors.New("reply exceeds length limit")
	ErrReplyPictograph = errors.New("reply contains pictographic symbols")
	ErrReplyNotFormal  = errors.New("reply lacks the formal register")
	ErrReplyEmpty      = errors.New("reply text is empty")
)

// pictographs covers the pictographic Unicode blocks that must never
// appear in a public review reply: miscellaneous symbols, dingbats,
// regional indicators, emoticons, transport symbols and the
// supplemental pictograph blocks.
var pictographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2600, Hi: 0x26FF, Stride: 1},
		{Lo: 0x2700, Hi: 0x27BF, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1F1E0, Hi: 0x1F1FF, Stride: 1},
		{Lo: 0x1F300, Hi: 0x1F5FF, Stride: 1},
		{Lo: 0x1F600, Hi: 0x1F64F, Stride: 1},
		{Lo: 0x1F680, Hi: 0x1F6FF, Stride: 1},
		{Lo: 0x1F900, Hi: 0x1F9FF, Stride: 1},
		{Lo: 0x1FA70, Hi: 0x1FAFF, Stride: 1},
	},
}

// ContainsPictograph reports whether s contains any pictographic symbol.
func ContainsPictograph(s string) bool {
	for _, r := range s {
		if unicode.Is(pictographs, r) {
			return true
		}
	}
	return false
}

// possessiveMarkers are the vowel-harmony forms of the second-person
// -plural possessive suffix that signal the polite "Siz" register.
var possessiveMarkers = []string{"iniz", "ınız", "unuz", "ünüz"}

// HasFormalTurkishRegister reports whether a Turkish text uses the
// polite "Siz" register, detected through the standalone pronoun (and
// its inflections) or the second-person-plural possessive suffixes.
// Markers are matched per word: the privative suffix "-siz/-sız"
// ("yetersiz", "ilgisiz") must not count as formal.
func HasFormalTurkishRegister(s string) bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		if strings.HasPrefix(word, "siz") {
			return true
		}
		for _, marker := range possessiveMarkers {
			if strings.Contains(word, marker) {
				return true
			}
		}
	}
	return false
}

// ValidateOutbound checks a reply that is about to be sent on the given
// platform. Review replies must be free of pictographic symbols;
// Turkish direct-message replies must use the formal register.
func ValidateOutbound(text string, platform event.Platform, language string) error {
	if strings.TrimSpace(text) == "" {
		return ErrReplyEmpty
	}
	if utf8.RuneCountInString(text) >= MaxReplyRunes {
		return ErrReplyTooLong
	}

	if platform.IsReviewChannel() {
		if ContainsPictograph(text) {
			return ErrReplyPictograph
		}
		return nil
	}

	if language == "tr" && !HasFormalTurkishRegister(text) {
		return ErrReplyNotFormal
	}
	return nil
}

// ValidateDraft checks an escalation draft. Drafts are for human eyes
// only, so only the length bound applies.
func ValidateDraft(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrReplyEmpty
	}
	if utf8.RuneCountInString(text) >= MaxReplyRunes {
		return ErrReplyTooLong
	}
	return nil
}
