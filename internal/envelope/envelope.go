package envelope

// ADSR describes an attack-decay-sustain-release amplitude envelope.
// Durations are in seconds; a duration of zero completes that phase
// instantly. Sustain is a level in 0..1.
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Value returns the amplitude multiplier for a voice with the given spec.
// age is seconds since note-on; releaseAge is seconds since note-off and is
// only meaningful when released is true. The result is in [0, max(1, Sustain)].
func Value(spec ADSR, age float64, released bool, releaseAge float64) float64 {
	if released {
		if releaseAge < spec.Release {
			return spec.Sustain * (1.0 - releaseAge/spec.Release)
		}
		return 0
	}
	if age < spec.Attack {
		return age / spec.Attack
	}
	if age < spec.Attack+spec.Decay {
		progress := (age - spec.Attack) / spec.Decay
		return 1.0 - (1.0-spec.Sustain)*progress
	}
	return spec.Sustain
}
