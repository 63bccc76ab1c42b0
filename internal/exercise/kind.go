// Package exercise classifies body poses into the exertion and return
// positions of each supported exercise.
package exercise

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is an exercise selection. Its value is the display label.
type Kind string

const (
	// Auto tracks several exercises at once and reports whichever moved last.
	Auto Kind = "auto"

	PushUp       Kind = "Push-up"
	BenchPress   Kind = "Bench Press"
	Squat        Kind = "Squat"
	LegLunge     Kind = "Leg Lunge"
	Plank        Kind = "Plank"
	SidePlank    Kind = "Side Plank"
	LegRaises    Kind = "Leg Raises"
	RussianTwist Kind = "Russian Twists"
	Burpee       Kind = "Burpee"

	DumbbellShoulderPress   Kind = "Dumbbell Shoulder Press"
	DumbbellBenchPress      Kind = "Dumbbell Bench Press"
	DumbbellBentOverRows    Kind = "Dumbbell Bent-Over Rows"
	DumbbellBicepCurls      Kind = "Dumbbell Bicep Curls"
	DumbbellGobletSquats    Kind = "Dumbbell Goblet Squats"
	DumbbellDeadlift        Kind = "Dumbbell Romanian Deadlifts"
	DumbbellTricepExtension Kind = "Dumbbell Overhand Tricep Extension"
	DumbbellLateralRaises   Kind = "Dumbbell Side Lateral Raises"
)

// ErrUnknownKind is returned for labels outside the supported set.
var ErrUnknownKind = errors.New("unknown exercise")

var allKinds = []Kind{
	Auto,
	PushUp,
	BenchPress,
	Squat,
	LegLunge,
	Plank,
	SidePlank,
	LegRaises,
	RussianTwist,
	Burpee,
	DumbbellShoulderPress,
	DumbbellBenchPress,
	DumbbellBentOverRows,
	DumbbellBicepCurls,
	DumbbellGobletSquats,
	DumbbellDeadlift,
	DumbbellTricepExtension,
	DumbbellLateralRaises,
}

// Kinds returns every selectable kind, auto first.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseKind resolves a display label or slug, ignoring case.
func ParseKind(s string) (Kind, error) {
	want := slugify(s)
	if want == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnknownKind)
	}
	for _, k := range allKinds {
		if k.Slug() == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// String returns the display label.
func (k Kind) String() string {
	return string(k)
}

// Slug returns the URL-safe form of the label, e.g. "dumbbell-bent-over-rows".
func (k Kind) Slug() string {
	return slugify(string(k))
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Isometric reports whether the exercise is timed rather than counted.
func (k Kind) Isometric() bool {
	return k == Plank || k == SidePlank
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// UnmarshalText accepts labels and slugs.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
