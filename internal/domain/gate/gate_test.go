package gate_test

import (
	"testing"
	"time"

	"github.com/physioflow/motion/internal/domain/gate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCooldown(t *testing.T) {
	Convey("Given a 400ms cooldown", t, func() {
		c := gate.NewCooldown(400 * time.Millisecond)
		t0 := time.Unix(0, 0)

		Convey("When triggers arrive closer than the window", func() {
			So(c.TryFire(t0), ShouldBeTrue)
			So(c.TryFire(t0.Add(100*time.Millisecond)), ShouldBeFalse)
			So(c.TryFire(t0.Add(399*time.Millisecond)), ShouldBeFalse)

			Convey("Then a trigger after the window is accepted again", func() {
				So(c.TryFire(t0.Add(400*time.Millisecond)), ShouldBeTrue)
			})

			Convey("And rejected triggers do not extend the window", func() {
				// The window is measured from t0, not from the rejections.
				So(c.Remaining(t0.Add(350*time.Millisecond)), ShouldEqual, 50*time.Millisecond)
			})
		})

		Convey("When reset", func() {
			So(c.TryFire(t0), ShouldBeTrue)
			c.Reset()

			Convey("Then the next trigger is immediately accepted", func() {
				So(c.TryFire(t0.Add(time.Millisecond)), ShouldBeTrue)
			})
		})
	})

	Convey("Given a zero-window cooldown", t, func() {
		c := gate.NewCooldown(0)

		Convey("Then every trigger is accepted", func() {
			t0 := time.Unix(0, 0)
			So(c.TryFire(t0), ShouldBeTrue)
			So(c.TryFire(t0), ShouldBeTrue)
		})
	})
}

func TestHysteresis(t *testing.T) {
	Convey("Given a trigger with on=1.0 off=0.4", t, func() {
		h := gate.NewHysteresis(1.0, 0.4)

		Convey("When the value oscillates between the thresholds", func() {
			So(h.Observe(1.2), ShouldBeTrue) // rising edge
			So(h.Observe(0.8), ShouldBeFalse)
			So(h.Observe(1.5), ShouldBeFalse) // still armed, no re-trigger
			So(h.Observe(0.5), ShouldBeFalse)

			Convey("Then it only re-fires after dropping below off", func() {
				So(h.Observe(0.3), ShouldBeFalse) // disarms
				So(h.Active(), ShouldBeFalse)
				So(h.Observe(1.1), ShouldBeTrue)
			})
		})
	})

	Convey("Given an off threshold at or above on", t, func() {
		h := gate.NewHysteresis(1.0, 1.0)

		Convey("Then the off threshold is pulled below on", func() {
			So(h.Observe(1.0), ShouldBeTrue)
			So(h.Observe(0.9), ShouldBeFalse) // above on/2, still armed
			So(h.Observe(0.4), ShouldBeFalse) // below on/2, disarms
			So(h.Observe(1.0), ShouldBeTrue)
		})
	})
}
