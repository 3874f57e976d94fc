package calibration_test

import (
	"math"
	"testing"

	"github.com/physioflow/motion/internal/domain/calibration"
	"github.com/physioflow/motion/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// scatter builds n sub-samples around center with the given radial spread.
func scatter(center model.Vec3, spread float64, n int) []model.Vec3 {
	out := make([]model.Vec3, n)
	for i := range out {
		// Deterministic spread pattern, alternating axes.
		sign := 1.0
		if i%2 == 1 {
			sign = -1
		}
		switch i % 3 {
		case 0:
			out[i] = center.Add(model.Vec3{X: sign * spread})
		case 1:
			out[i] = center.Add(model.Vec3{Y: sign * spread})
		default:
			out[i] = center.Add(model.Vec3{Z: sign * spread})
		}
	}
	return out
}

func TestEstimator_CaptureGating(t *testing.T) {
	Convey("Given an estimator with a 6cm scatter threshold", t, func() {
		est := calibration.New(0.7,
			calibration.WithScatterThreshold(0.06),
			calibration.WithMinSubSamples(5),
			calibration.WithMaxAttempts(3),
		)

		Convey("When sub-samples scatter within the threshold", func() {
			err := est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: 0.1}, 0.02, 6))

			Convey("Then the capture is accepted", func() {
				So(err, ShouldBeNil)
				So(est.Attempts(calibration.PostureFolded), ShouldEqual, 0)
			})
		})

		Convey("When sub-samples scatter beyond the threshold", func() {
			err := est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: 0.1}, 0.15, 6))

			Convey("Then the capture is rejected with a recapture request", func() {
				So(err, ShouldEqual, calibration.ErrUnstableCapture)
				So(est.Attempts(calibration.PostureFolded), ShouldEqual, 1)
			})

			Convey("And exhausting the attempt budget fails the calibration", func() {
				So(est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: 0.1}, 0.15, 6)),
					ShouldEqual, calibration.ErrUnstableCapture)
				So(est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: 0.1}, 0.15, 6)),
					ShouldEqual, calibration.ErrCalibrationFailed)
			})
		})

		Convey("When too few sub-samples are offered", func() {
			err := est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{}, 0.01, 3))

			Convey("Then the capture is rejected without consuming an attempt", func() {
				So(err, ShouldEqual, calibration.ErrInsufficientSamples)
				So(est.Attempts(calibration.PostureFolded), ShouldEqual, 0)
			})
		})
	})
}

func TestEstimator_Triangulation(t *testing.T) {
	Convey("Given captures from a synthetic 0.7m limb anchored at the origin", t, func() {
		// The limb pivots around the origin in the X-Y plane; both posture
		// positions are exactly 0.7m from the anchor.
		const length = 0.7
		folded := model.Vec3{X: -0.3, Y: -math.Sqrt(length*length - 0.09)}
		extended := model.Vec3{X: 0.3, Y: -math.Sqrt(length*length - 0.09)}

		est := calibration.New(length, calibration.WithMinSubSamples(5))
		So(est.SubmitCapture(calibration.PostureFolded, scatter(folded, 0.005, 5)), ShouldBeNil)
		So(est.SubmitCapture(calibration.PostureExtended, scatter(extended, 0.005, 5)), ShouldBeNil)

		Convey("When estimating", func() {
			profile, err := est.Estimate()

			Convey("Then the anchor lands near the true pivot", func() {
				So(err, ShouldBeNil)
				So(profile.Valid, ShouldBeTrue)
				So(profile.SegmentLengthM, ShouldEqual, length)
				So(profile.Anchor.DistanceTo(model.Vec3{}), ShouldBeLessThan, 0.03)
			})

			Convey("And anchor-to-posture distances match the segment length", func() {
				So(profile.Anchor.DistanceTo(folded), ShouldAlmostEqual, length, 0.03)
				So(profile.Anchor.DistanceTo(extended), ShouldAlmostEqual, length, 0.03)
				So(profile.CaptureStdDevM, ShouldBeLessThan, 0.02)
			})
		})
	})

	Convey("Given captures wider apart than the limb allows", t, func() {
		est := calibration.New(0.5, calibration.WithMinSubSamples(5))
		So(est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: -0.6}, 0.005, 5)), ShouldBeNil)
		So(est.SubmitCapture(calibration.PostureExtended, scatter(model.Vec3{X: 0.6}, 0.005, 5)), ShouldBeNil)

		Convey("Then estimation fails explicitly", func() {
			_, err := est.Estimate()
			So(err, ShouldEqual, calibration.ErrDegenerateCaptures)
		})
	})

	Convey("Given a missing posture", t, func() {
		est := calibration.New(0.7, calibration.WithMinSubSamples(5))
		So(est.SubmitCapture(calibration.PostureFolded, scatter(model.Vec3{X: 0.1}, 0.005, 5)), ShouldBeNil)

		Convey("Then estimation reports the gap rather than guessing", func() {
			_, err := est.Estimate()
			So(err, ShouldEqual, calibration.ErrMissingPosture)
		})
	})

	Convey("Given a non-positive segment length", t, func() {
		est := calibration.New(0)

		Convey("Then estimation fails", func() {
			_, err := est.Estimate()
			So(err, ShouldEqual, calibration.ErrInvalidSegmentLength)
		})
	})
}

func TestEstimator_QualityFlagging(t *testing.T) {
	Convey("Given a mid posture inconsistent with the others", t, func() {
		const length = 0.7
		folded := model.Vec3{X: -0.3, Y: -math.Sqrt(length*length - 0.09)}
		extended := model.Vec3{X: 0.3, Y: -math.Sqrt(length*length - 0.09)}
		// Mid posture far off the sphere of radius L around the true anchor.
		badMid := model.Vec3{X: 0, Y: -0.25}

		est := calibration.New(length,
			calibration.WithMinSubSamples(5),
			calibration.WithMaxAnchorStdDev(0.05),
		)
		So(est.SubmitCapture(calibration.PostureFolded, scatter(folded, 0.005, 5)), ShouldBeNil)
		So(est.SubmitCapture(calibration.PostureExtended, scatter(extended, 0.005, 5)), ShouldBeNil)
		So(est.SubmitCapture(calibration.PostureMid, scatter(badMid, 0.005, 5)), ShouldBeNil)

		Convey("When estimating", func() {
			profile, err := est.Estimate()

			Convey("Then the profile is flagged invalid, not silently accepted", func() {
				So(err, ShouldEqual, calibration.ErrExcessiveVariance)
				So(profile.Valid, ShouldBeFalse)
				So(profile.CaptureStdDevM, ShouldBeGreaterThan, 0.05)
			})
		})
	})
}
