package domain

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRoomStateApplyIntent(t *testing.T) {
	Convey("RoomState.ApplyIntent", t, func() {
		v0 := MediaRef{Kind: MediaVideo, ID: "dQw4w9WgXcQ"}
		p1 := MediaRef{Kind: MediaPlaylist, ID: "PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV"}
		state := NewRoomState("default", v0)
		now := time.Now()

		Convey("Play sets playing and position", func() {
			state.ApplyIntent(&Intent{Type: MsgTypePlay, Media: v0, Position: 42}, now)
			So(state.Playing, ShouldBeTrue)
			So(state.Position, ShouldEqual, 42)
		})

		Convey("Pause clears playing and keeps position", func() {
			state.ApplyIntent(&Intent{Type: MsgTypePlay, Media: v0, Position: 42}, now)
			state.ApplyIntent(&Intent{Type: MsgTypePause, Media: v0, Position: 45}, now)
			So(state.Playing, ShouldBeFalse)
			So(state.Position, ShouldEqual, 45)
		})

		Convey("Sync updates position only, never the play state", func() {
			state.ApplyIntent(&Intent{Type: MsgTypePlay, Media: v0, Position: 10}, now)
			state.ApplyIntent(&Intent{Type: MsgTypeSync, Media: v0, Position: 120}, now)
			So(state.Playing, ShouldBeTrue)
			So(state.Position, ShouldEqual, 120)
		})

		Convey("Media change is a hard reset, regardless of prior state", func() {
			state.ApplyIntent(&Intent{Type: MsgTypePlay, Media: v0, Position: 42}, now)
			state.ApplyIntent(&Intent{Type: MsgTypeChangeMedia, Media: p1, Position: 99}, now)
			So(state.Media, ShouldResemble, p1)
			So(state.Playing, ShouldBeFalse)
			So(state.Position, ShouldEqual, 0)
		})

		Convey("An intent about different media is itself a media change", func() {
			state.ApplyIntent(&Intent{Type: MsgTypePlay, Media: p1, Position: 30}, now)
			So(state.Media, ShouldResemble, p1)
			So(state.Playing, ShouldBeFalse)
			So(state.Position, ShouldEqual, 0)
		})

		Convey("Applied intents refresh the update timestamp", func() {
			later := now.Add(time.Minute)
			state.ApplyIntent(&Intent{Type: MsgTypeSync, Media: v0, Position: 5}, later)
			So(state.UpdatedAt, ShouldEqual, later)
		})
	})
}
