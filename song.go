package player

// Song identifies one decodable unit of audio: a local file or a network
// stream. Tag is mutable only for non-file (streaming) songs, and only by
// the playback loop, when a chunk carries a refreshed tag (§3, §4.6 step 2).
type Song struct {
	URL    string
	Tag    *Tag
	IsFile bool
}

// songEqual treats two nil songs as equal, a nil/non-nil pair as unequal,
// and otherwise compares by URL -- the same identity the decoder uses to
// tell "the song it is currently decoding" from "the next queued song".
func songEqual(a, b *Song) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a == b || a.URL == b.URL
}
