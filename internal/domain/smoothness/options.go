package smoothness

import (
	"time"

	"github.com/physioflow/motion/internal/domain/buffer"
	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/pkg/logger"
)

const defaultWindow = 512

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithWindow sets how many recent samples the score is computed over.
func WithWindow(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.buf = buffer.New(buffer.WithCapacity[model.PositionSample](n))
		}
	}
}

// WithRecomputeInterval sets the minimum time between score recomputes.
func WithRecomputeInterval(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.interval = d
		}
	}
}

// WithDropoutThreshold sets the gap beyond which adjacent samples are not
// differentiated against each other.
func WithDropoutThreshold(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.dropout = d
		}
	}
}

// WithJerkScale sets the penalty per unit of mean jerk magnitude.
func WithJerkScale(s float64) Option {
	return func(a *Analyzer) {
		if s > 0 {
			a.jerkScale = s
		}
	}
}

// WithDirectionScale sets the penalty per radian of mean direction change.
func WithDirectionScale(s float64) Option {
	return func(a *Analyzer) {
		if s > 0 {
			a.dirScale = s
		}
	}
}

// WithWeights sets the velocity, jerk, and direction component weights.
// Non-positive triples are ignored.
func WithWeights(vel, jerk, dir float64) Option {
	return func(a *Analyzer) {
		sum := vel + jerk + dir
		if vel < 0 || jerk < 0 || dir < 0 || sum <= 0 {
			return
		}
		a.wVel, a.wJerk, a.wDir = vel/sum, jerk/sum, dir/sum
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(log logger.Logger) Option {
	return func(a *Analyzer) {
		if log != nil {
			a.log = log
		}
	}
}
