package domain

import "fmt"

// WarningLevel is the ordered severity reported by sensors.
type WarningLevel int

const (
	LevelSafe WarningLevel = iota
	LevelCaution
	LevelWarning
	LevelCritical
)

var levelNames = map[WarningLevel]string{
	LevelSafe:     "SAFE",
	LevelCaution:  "CAUTION",
	LevelWarning:  "WARNING",
	LevelCritical: "CRITICAL",
}

// String returns the upper-case level name.
func (l WarningLevel) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// MarshalText encodes the level by name.
func (l WarningLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *WarningLevel) UnmarshalText(b []byte) error {
	for lvl, name := range levelNames {
		if name == string(b) {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown warning level %q", string(b))
}

// MaxLevel returns the more severe of two levels.
func MaxLevel(a, b WarningLevel) WarningLevel {
	if a > b {
		return a
	}
	return b
}
