package aiff

import "fmt"

// AppleMetadata is a list of custom fields sometimes set by Apple specific
// progams such as Logic.
type AppleMetadata struct {
	// Beats is the number of beats in the sample
	Beats uint32
	// Note is the root key of the sample (48 = C)
	Note uint16
	// Scale is the musical scale; 0 = neither, 1 = minor, 2 = major, 4 = both
	Scale uint16
	// Numerator of the time signature
	Numerator uint16
	// Denominator of the time signature
	Denominator uint16
	// IsLooping indicates if the sample is a loop or not
	IsLooping bool
	// Tags are tags related to the content of the file
	Tags []string
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// AppleNoteToPitch converts a bas chunk root note (MIDI note number, 60 = C3)
// into a pitch name such as "C3" or "A#4".
func AppleNoteToPitch(note uint16) string {
	octave := int(note)/12 - 2
	return fmt.Sprintf("%s%d", noteNames[int(note)%12], octave)
}

// AppleScaleToString converts a bas chunk scale value into a human readable
// name.
func AppleScaleToString(scale uint16) string {
	switch scale {
	case 1:
		return "minor"
	case 2:
		return "major"
	case 4:
		return "both"
	default:
		return "neither"
	}
}
