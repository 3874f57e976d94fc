package synth_test

import (
	"testing"
	"time"

	"github.com/physioflow/motion/internal/domain/model"
	"github.com/physioflow/motion/internal/synth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerators(t *testing.T) {
	start := time.Unix(0, 0)

	Convey("Given the pendulum generator", t, func() {
		samples := synth.Pendulum(start, 0.7, 0.5, 0.5, 2, 100)

		Convey("Then every sample sits on the limb sphere", func() {
			So(samples, ShouldHaveLength, 200)
			for _, s := range samples {
				So(s.Pos.Norm(), ShouldAlmostEqual, 0.7, 1e-9)
			}
		})

		Convey("Then timestamps are strictly increasing", func() {
			for i := 1; i < len(samples); i++ {
				So(samples[i].TS.After(samples[i-1].TS), ShouldBeTrue)
			}
		})
	})

	Convey("Given the circle generator", t, func() {
		center := model.Vec3{X: 0.1, Y: -0.6}
		samples := synth.Circle(start, center, 0.2, 2.0, 2, 100)

		Convey("Then every sample sits on the circle", func() {
			for _, s := range samples {
				So(s.Pos.DistanceTo(center), ShouldAlmostEqual, 0.2, 1e-9)
			}
		})
	})

	Convey("Given the noise decorator", t, func() {
		clean := synth.Slide(start, 0.5, 1, 100)

		Convey("Then the same seed reproduces the same stream", func() {
			a := synth.WithNoise(clean, 0.005, 42)
			b := synth.WithNoise(clean, 0.005, 42)
			So(a, ShouldResemble, b)
		})

		Convey("Then noise stays within its bound", func() {
			noisy := synth.WithNoise(clean, 0.005, 7)
			for i := range noisy {
				So(noisy[i].Pos.DistanceTo(clean[i].Pos), ShouldBeLessThan, 0.01)
			}
		})
	})
}
