package alarm

import (
	"context"
	"time"
)

// Buzzer drives the alarm sounder.
type Buzzer interface {
	// Start begins sounding at roughly freqHz. Active buzzers ignore the frequency.
	Start(freqHz uint) error
	// Stop silences the buzzer.
	Stop() error
}

// Note is one step of a tone score.
type Note struct {
	FreqHz   uint
	Duration time.Duration
}

// Tone timing used by the alarm score.
const (
	BeatUnit = 125 * time.Millisecond
	NoteGap  = 50 * time.Millisecond
)

// toneFreqs is indexed by score note number; 0 is a rest.
var toneFreqs = [...]uint{0, 4186, 4700, 5276, 5588, 6272, 7040, 7902, 3136}

// AlarmScore is the two-tone siren: three repeats of six high-C notes
// followed by six A notes.
var AlarmScore = buildScore(
	[]uint8{
		1, 1, 1, 1, 1, 1, 6, 6, 6, 6, 6, 6, 1, 1, 1, 1, 1, 1,
		6, 6, 6, 6, 6, 6, 1, 1, 1, 1, 1, 1, 6, 6, 6, 6, 6, 6,
	},
	4,
)

func buildScore(notes []uint8, beats uint8) []Note {
	score := make([]Note, len(notes))
	for i, n := range notes {
		score[i] = Note{FreqHz: toneFreqs[n], Duration: time.Duration(beats) * BeatUnit}
	}
	return score
}

// ScoreDuration returns the total blocking time of playing score.
func ScoreDuration(score []Note) time.Duration {
	var d time.Duration
	for _, n := range score {
		d += n.Duration + NoteGap
	}
	return d
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Player plays a score on a buzzer. Play blocks for the whole score; a
// later "off" request cannot cut it short. Only ctx cancellation (process
// shutdown) stops it early.
type Player struct {
	buzzer Buzzer
	score  []Note
	sleep  Sleeper
}

// NewPlayer returns a player for AlarmScore. A nil sleeper selects Sleep.
func NewPlayer(buzzer Buzzer, sleep Sleeper) *Player {
	if sleep == nil {
		sleep = Sleep
	}
	return &Player{buzzer: buzzer, score: AlarmScore, sleep: sleep}
}

// Duration is the fixed time Play blocks for.
func (p *Player) Duration() time.Duration {
	return ScoreDuration(p.score)
}

// Play sounds the whole score. The buzzer is always left stopped. The first
// buzzer error is returned after the score finishes; it does not abort
// playback.
func (p *Player) Play(ctx context.Context) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, n := range p.score {
		if n.FreqHz > 0 {
			keep(p.buzzer.Start(n.FreqHz))
		}
		if err := p.sleep(ctx, n.Duration); err != nil {
			keep(p.buzzer.Stop())
			return err
		}
		keep(p.buzzer.Stop())
		if err := p.sleep(ctx, NoteGap); err != nil {
			return err
		}
	}
	return firstErr
}
