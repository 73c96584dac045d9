package storage

// Published object layout. Every episode artifact key embeds the canonical
// name, so a listing of any prefix doubles as an episode inventory.
const (
	AudioPrefix       = "audio/"
	ThumbnailPrefix   = "thumbnails/"
	TranscriptPrefix  = "transcripts/"
	DescriptionPrefix = "descriptions/"

	// FeedKey is the single syndication feed document at the store root.
	FeedKey = "feed.xml"
)

// AudioKey returns the object key for an episode's assembled audio.
func AudioKey(canonicalName string) string {
	return AudioPrefix + canonicalName + ".mp3"
}

// ThumbnailKey returns the object key for an episode's cover image.
func ThumbnailKey(canonicalName string) string {
	return ThumbnailPrefix + canonicalName + "-thumb.jpg"
}

// TranscriptKey returns the object key for an episode's script transcript.
func TranscriptKey(canonicalName string) string {
	return TranscriptPrefix + canonicalName + ".md"
}

// DescriptionKey returns the object key for an episode's show-notes document.
func DescriptionKey(canonicalName string) string {
	return DescriptionPrefix + canonicalName + ".md"
}
