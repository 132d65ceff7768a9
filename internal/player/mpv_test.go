package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// drain pulls every queued event off the adapter's channel.
func drain(m *MPV) []Event {
	var events []Event
	for {
		select {
		case ev := <-m.events:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func TestPropertyMapping(t *testing.T) {
	Convey("mpv property changes", t, func() {
		m := NewMPV()

		Convey("pause=false means playing", func() {
			m.onPropertyChange("pause", false)

			So(m.State(), ShouldEqual, StatePlaying)
			events := drain(m)
			So(events, ShouldHaveLength, 1)
			So(events[0].State, ShouldEqual, StatePlaying)
		})

		Convey("pause=true means paused", func() {
			m.onPropertyChange("pause", true)
			So(m.State(), ShouldEqual, StatePaused)
		})

		Convey("a repeated value emits no duplicate event", func() {
			m.onPropertyChange("pause", false)
			drain(m)
			m.onPropertyChange("pause", false)

			So(drain(m), ShouldBeEmpty)
		})

		Convey("seeking buffers, then restores the pause state", func() {
			m.onPropertyChange("pause", false)
			m.onPropertyChange("seeking", true)
			So(m.State(), ShouldEqual, StateBuffering)

			m.onPropertyChange("seeking", false)
			So(m.State(), ShouldEqual, StatePlaying)

			Convey("and a paused seek comes back paused", func() {
				m.onPropertyChange("pause", true)
				m.onPropertyChange("seeking", true)
				m.onPropertyChange("seeking", false)
				So(m.State(), ShouldEqual, StatePaused)
			})
		})

		Convey("eof-reached ends playback", func() {
			m.onPropertyChange("pause", false)
			m.onPropertyChange("eof-reached", true)
			So(m.State(), ShouldEqual, StateEnded)

			Convey("but a false value is ignored", func() {
				m2 := NewMPV()
				m2.onPropertyChange("eof-reached", false)
				So(m2.State(), ShouldEqual, StateUnstarted)
			})
		})

		Convey("end-file surfaces as an error event", func() {
			m.onPropertyChange("end-file", "error")

			events := drain(m)
			So(events, ShouldHaveLength, 1)
			So(events[0].Err, ShouldNotBeNil)
		})

		Convey("malformed property payloads are dropped", func() {
			m.onPropertyChange("pause", "yes")
			m.onPropertyChange("seeking", 1)
			So(m.State(), ShouldEqual, StateUnstarted)
			So(drain(m), ShouldBeEmpty)
		})
	})
}

func TestEventParsing(t *testing.T) {
	Convey("IPC event lines", t, func() {
		var gotName string
		var gotData interface{}
		calls := 0

		el := newEventListener("", func(name string, data interface{}) {
			gotName = name
			gotData = data
			calls++
		})

		Convey("dispatches a property change", func() {
			el.processEvent(`{"event":"property-change","id":1,"name":"pause","data":true}`)

			So(calls, ShouldEqual, 1)
			So(gotName, ShouldEqual, "pause")
			So(gotData, ShouldEqual, true)
		})

		Convey("dispatches end-file with its reason", func() {
			el.processEvent(`{"event":"end-file","reason":"error"}`)

			So(calls, ShouldEqual, 1)
			So(gotName, ShouldEqual, "end-file")
			So(gotData, ShouldEqual, "error")
		})

		Convey("ignores command replies and junk", func() {
			el.processEvent(`{"error":"success","request_id":3}`)
			el.processEvent(`not json`)
			el.processEvent(`{"event":"property-change","name":""}`)

			So(calls, ShouldEqual, 0)
		})
	})
}
