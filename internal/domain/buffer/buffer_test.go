package buffer_test

import (
	"sync"
	"testing"

	"github.com/physioflow/motion/internal/domain/buffer"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRing_AppendAndSnapshot(t *testing.T) {
	Convey("Given a ring buffer of capacity 100", t, func() {
		r := buffer.New(buffer.WithCapacity[int](100))

		Convey("When fewer samples than capacity are appended", func() {
			for i := 0; i < 40; i++ {
				r.Append(i)
			}

			Convey("Then the snapshot holds them all, in order", func() {
				snap := r.Snapshot()
				So(snap, ShouldHaveLength, 40)
				So(snap[0], ShouldEqual, 0)
				So(snap[39], ShouldEqual, 39)
				So(r.Len(), ShouldEqual, 40)
			})
		})

		Convey("When 250 samples are appended", func() {
			for i := 0; i < 250; i++ {
				r.Append(i)
			}

			Convey("Then exactly the most recent 100 remain, in order", func() {
				snap := r.Snapshot()
				So(snap, ShouldHaveLength, 100)
				So(snap[0], ShouldEqual, 150)
				So(snap[99], ShouldEqual, 249)
			})
		})
	})
}

func TestRing_Resize(t *testing.T) {
	Convey("Given a full ring buffer of capacity 10", t, func() {
		r := buffer.New(buffer.WithCapacity[int](10))
		for i := 0; i < 25; i++ {
			r.Append(i)
		}

		Convey("When resized down to 4", func() {
			r.Resize(4)

			Convey("Then only the newest 4 samples survive", func() {
				So(r.Cap(), ShouldEqual, 4)
				So(r.Snapshot(), ShouldResemble, []int{21, 22, 23, 24})
			})

			Convey("And appends keep working after the resize", func() {
				r.Append(25)
				So(r.Snapshot(), ShouldResemble, []int{22, 23, 24, 25})
			})
		})

		Convey("When resized up to 20", func() {
			r.Resize(20)

			Convey("Then all existing samples survive", func() {
				So(r.Snapshot(), ShouldHaveLength, 10)
				So(r.Snapshot()[0], ShouldEqual, 15)
			})
		})
	})
}

func TestRing_Clear(t *testing.T) {
	Convey("Given a buffer with samples", t, func() {
		r := buffer.New(buffer.WithCapacity[int](8))
		for i := 0; i < 5; i++ {
			r.Append(i)
		}

		Convey("When cleared", func() {
			r.Clear()

			Convey("Then it is empty but retains capacity", func() {
				So(r.Len(), ShouldEqual, 0)
				So(r.Cap(), ShouldEqual, 8)
			})
		})
	})
}

func TestRing_ConcurrentReaders(t *testing.T) {
	Convey("Given one writer and many snapshot readers", t, func() {
		r := buffer.New(buffer.WithCapacity[int](64))

		var wg sync.WaitGroup
		done := make(chan struct{})

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				r.Append(i)
			}
			close(done)
		}()

		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
						snap := r.Snapshot()
						// Snapshots must always be internally ordered.
						for i := 1; i < len(snap); i++ {
							if snap[i] <= snap[i-1] {
								t.Errorf("snapshot out of order: %d after %d", snap[i], snap[i-1])
								return
							}
						}
					}
				}
			}()
		}

		wg.Wait()

		Convey("Then the final snapshot holds the newest 64 values", func() {
			snap := r.Snapshot()
			So(snap, ShouldHaveLength, 64)
			So(snap[63], ShouldEqual, 4999)
		})
	})
}
