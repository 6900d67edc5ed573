// Package session orders plays by time and groups them into listening sessions.
package session

import (
	"sort"
	"time"

	"github.com/verte-zerg/squeezestats/internal/model"
)

// TimeOrdered is a play sequence sorted ascending by PlayedAt.
// It can only be built by Sort or Flatten.
type TimeOrdered struct {
	plays []model.Play
}

// Sort returns a stably time-sorted copy of plays.
func Sort(plays []model.Play) TimeOrdered {
	out := make([]model.Play, len(plays))
	copy(out, plays)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayedAt.Before(out[j].PlayedAt)
	})
	return TimeOrdered{plays: out}
}

// Plays returns the ordered plays. Callers must not modify the slice.
func (t TimeOrdered) Plays() []model.Play {
	return t.plays
}

// Len returns the number of plays.
func (t TimeOrdered) Len() int {
	return len(t.plays)
}

// Segment splits the sequence whenever two consecutive plays start more than
// gap apart. The last session is always closed, even with a single play.
func Segment(t TimeOrdered, gap time.Duration) []model.Session {
	if len(t.plays) == 0 {
		return nil
	}
	var sessions []model.Session
	current := open(t.plays[0])
	for i := 1; i < len(t.plays); i++ {
		p := t.plays[i]
		if p.PlayedAt.Sub(t.plays[i-1].PlayedAt) > gap {
			sessions = append(sessions, current)
			current = open(p)
			continue
		}
		current.Plays = append(current.Plays, p)
		current.End = p.EndsAt()
		current.DurationSeconds += p.DurationSeconds
	}
	return append(sessions, current)
}

func open(p model.Play) model.Session {
	return model.Session{
		Plays:           []model.Play{p},
		Start:           p.PlayedAt,
		End:             p.EndsAt(),
		DurationSeconds: p.DurationSeconds,
	}
}

// Flatten concatenates session members back into one ordered sequence.
func Flatten(sessions []model.Session) TimeOrdered {
	var out []model.Play
	for _, s := range sessions {
		out = append(out, s.Plays...)
	}
	return TimeOrdered{plays: out}
}
