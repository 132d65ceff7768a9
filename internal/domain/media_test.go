package domain

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseMediaRef(t *testing.T) {
	Convey("ParseMediaRef", t, func() {
		Convey("Accepts a bare video ID", func() {
			ref, err := ParseMediaRef("dQw4w9WgXcQ")
			So(err, ShouldBeNil)
			So(ref.Kind, ShouldEqual, MediaVideo)
			So(ref.ID, ShouldEqual, "dQw4w9WgXcQ")
		})

		Convey("Accepts a playlist ID", func() {
			ref, err := ParseMediaRef("PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV")
			So(err, ShouldBeNil)
			So(ref.Kind, ShouldEqual, MediaPlaylist)
		})

		Convey("Accepts a watch URL", func() {
			ref, err := ParseMediaRef("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			So(err, ShouldBeNil)
			So(ref, ShouldResemble, MediaRef{Kind: MediaVideo, ID: "dQw4w9WgXcQ"})
		})

		Convey("Accepts a short link", func() {
			ref, err := ParseMediaRef("https://youtu.be/dQw4w9WgXcQ")
			So(err, ShouldBeNil)
			So(ref, ShouldResemble, MediaRef{Kind: MediaVideo, ID: "dQw4w9WgXcQ"})
		})

		Convey("Accepts a playlist URL", func() {
			ref, err := ParseMediaRef("https://www.youtube.com/playlist?list=PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV")
			So(err, ShouldBeNil)
			So(ref.Kind, ShouldEqual, MediaPlaylist)
			So(ref.ID, ShouldEqual, "PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV")
		})

		Convey("A watch URL with a list parameter is a playlist", func() {
			ref, err := ParseMediaRef("https://www.youtube.com/watch?v=dQw4w9WgXcQ&list=PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV")
			So(err, ShouldBeNil)
			So(ref.Kind, ShouldEqual, MediaPlaylist)
		})

		Convey("Accepts a shorts URL", func() {
			ref, err := ParseMediaRef("https://www.youtube.com/shorts/dQw4w9WgXcQ")
			So(err, ShouldBeNil)
			So(ref, ShouldResemble, MediaRef{Kind: MediaVideo, ID: "dQw4w9WgXcQ"})
		})

		Convey("Rejects junk", func() {
			for _, raw := range []string{"", "   ", "not a media ref", "https://example.com/nope"} {
				_, err := ParseMediaRef(raw)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestMediaRef(t *testing.T) {
	Convey("MediaRef", t, func() {
		v := MediaRef{Kind: MediaVideo, ID: "dQw4w9WgXcQ"}
		p := MediaRef{Kind: MediaPlaylist, ID: "PLdU2XZbQBi-lRsyp4z3UEIDfSFgZ7JVgV"}

		Convey("Equal distinguishes kind and id", func() {
			So(v.Equal(v), ShouldBeTrue)
			So(v.Equal(p), ShouldBeFalse)
			So(v.Equal(MediaRef{Kind: MediaVideo, ID: "other"}), ShouldBeFalse)
		})

		Convey("WatchURL targets the right endpoint", func() {
			So(v.WatchURL(), ShouldEqual, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			So(p.WatchURL(), ShouldStartWith, "https://www.youtube.com/playlist?list=")
		})

		Convey("IsZero", func() {
			So(MediaRef{}.IsZero(), ShouldBeTrue)
			So(v.IsZero(), ShouldBeFalse)
		})
	})
}
