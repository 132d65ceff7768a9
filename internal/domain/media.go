package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// MediaKind discriminates what a MediaRef points at.
type MediaKind string

const (
	MediaVideo    MediaKind = "video"
	MediaPlaylist MediaKind = "playlist"
)

// MediaRef identifies the currently loaded video or playlist. Every
// intent event carries one so a receiver can detect "this event is about
// media I don't have loaded" and treat it as a media change.
type MediaRef struct {
	Kind MediaKind `json:"kind"`
	ID   string    `json:"id"`
}

// IsZero reports whether the reference is unset.
func (m MediaRef) IsZero() bool {
	return m.ID == ""
}

// Equal reports whether two references identify the same media.
func (m MediaRef) Equal(other MediaRef) bool {
	return m.Kind == other.Kind && m.ID == other.ID
}

func (m MediaRef) String() string {
	if m.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", m.Kind, m.ID)
}

// WatchURL builds the YouTube URL a player can load for this reference.
func (m MediaRef) WatchURL() string {
	if m.Kind == MediaPlaylist {
		return "https://www.youtube.com/playlist?list=" + url.QueryEscape(m.ID)
	}
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(m.ID)
}

var ErrBadMediaRef = errors.New("unrecognized media reference")

// ParseMediaRef accepts what users actually paste: a bare 11-character
// video ID, a playlist ID (PL/UU/OL prefix), a watch URL, a youtu.be
// short link, or a playlist URL.
func ParseMediaRef(raw string) (MediaRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return MediaRef{}, ErrBadMediaRef
	}

	if strings.Contains(raw, "://") || strings.HasPrefix(raw, "www.") || strings.HasPrefix(raw, "youtu.be/") {
		return parseMediaURL(raw)
	}

	if isPlaylistID(raw) {
		return MediaRef{Kind: MediaPlaylist, ID: raw}, nil
	}
	if isVideoID(raw) {
		return MediaRef{Kind: MediaVideo, ID: raw}, nil
	}
	return MediaRef{}, ErrBadMediaRef
}

func parseMediaURL(raw string) (MediaRef, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return MediaRef{}, fmt.Errorf("%w: %s", ErrBadMediaRef, raw)
	}

	if list := u.Query().Get("list"); list != "" {
		return MediaRef{Kind: MediaPlaylist, ID: list}, nil
	}
	if v := u.Query().Get("v"); v != "" {
		return MediaRef{Kind: MediaVideo, ID: v}, nil
	}
	if strings.Contains(u.Host, "youtu.be") {
		if id := strings.Trim(u.Path, "/"); id != "" {
			return MediaRef{Kind: MediaVideo, ID: id}, nil
		}
	}
	// Shorts and embed paths carry the ID as the last path segment.
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(u.Path, prefix) {
			if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
				return MediaRef{Kind: MediaVideo, ID: id}, nil
			}
		}
	}
	return MediaRef{}, fmt.Errorf("%w: %s", ErrBadMediaRef, raw)
}

func isVideoID(s string) bool {
	if len(s) != 11 {
		return false
	}
	return isMediaIDCharset(s)
}

func isPlaylistID(s string) bool {
	if len(s) < 13 {
		return false
	}
	for _, prefix := range []string{"PL", "UU", "OL", "RD", "LL"} {
		if strings.HasPrefix(s, prefix) {
			return isMediaIDCharset(s)
		}
	}
	return false
}

func isMediaIDCharset(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
