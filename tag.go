package player

// Tag carries the metadata the core propagates from decoded chunks to audio
// outputs and, for streaming songs, back onto the Song itself.
type Tag struct {
	Title  string
	Artist string
	Album  string
	Track  int
}

// Duplicate returns a copy of the tag, or nil if t is nil.
func (t *Tag) Duplicate() *Tag {
	if t == nil {
		return nil
	}
	dup := *t
	return &dup
}

// MetadataReader is satisfied by github.com/dhowden/tag's Metadata, letting
// decoder adapters hand this package a tag without this package importing a
// third-party tag-parsing library itself.
type MetadataReader interface {
	Title() string
	Artist() string
	Album() string
}

// TagFromMetadata adapts a MetadataReader (e.g. github.com/dhowden/tag's
// Metadata) into the Tag shape the core understands.
func TagFromMetadata(m MetadataReader) *Tag {
	if m == nil {
		return nil
	}
	return &Tag{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}
}
