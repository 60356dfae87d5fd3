// Package midi turns transcribed note events into a Standard MIDI File.
package midi

import (
	"fmt"
	"io"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/huzarta/piano-transcription-service/internal/core/domain"
)

const ticksPerQuarter = 960

// Encoder writes single-track SMF output at a fixed tempo, the contract the
// original pipeline produced (tempo 120, one piano track).
type Encoder struct {
	tempo float64
}

func NewEncoder(tempo float64) *Encoder {
	if tempo <= 0 {
		tempo = 120
	}
	return &Encoder{tempo: tempo}
}

type point struct {
	tick uint32
	on   bool
	key  uint8
	vel  uint8
}

// Encode writes the notes as one MIDI track. Notes with a non-positive
// duration, a negative onset, or a pitch outside the MIDI range are skipped.
func (e *Encoder) Encode(w io.Writer, notes []domain.NoteEvent) error {
	points := make([]point, 0, len(notes)*2)
	for _, n := range notes {
		if n.Start < 0 || n.End <= n.Start || n.Pitch > 127 {
			continue
		}
		vel := n.Velocity
		if vel == 0 || vel > 127 {
			vel = 64
		}
		points = append(points,
			point{tick: e.tick(n.Start), on: true, key: n.Pitch, vel: vel},
			point{tick: e.tick(n.End), on: false, key: n.Pitch},
		)
	}
	if len(points) == 0 {
		return fmt.Errorf("encode midi: no playable notes")
	}

	// Offs sort before ons at the same tick so a repeated pitch restarts
	// cleanly instead of cancelling itself.
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].tick != points[j].tick {
			return points[i].tick < points[j].tick
		}
		return !points[i].on && points[j].on
	})

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("piano"))
	tr.Add(0, smf.MetaTempo(e.tempo))
	tr.Add(0, gomidi.ProgramChange(0, 0)) // acoustic grand

	var cursor uint32
	for _, p := range points {
		delta := p.tick - cursor
		cursor = p.tick
		if p.on {
			tr.Add(delta, gomidi.NoteOn(0, p.key, p.vel))
		} else {
			tr.Add(delta, gomidi.NoteOff(0, p.key))
		}
	}
	tr.Close(0)

	s.Add(tr)
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("encode midi: %w", err)
	}
	return nil
}

func (e *Encoder) tick(seconds float64) uint32 {
	return uint32(math.Round(seconds * e.tempo / 60 * ticksPerQuarter))
}
