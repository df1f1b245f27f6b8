// Package media provides file-name and display helpers for voice samples
// and generated clips.
package media

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// Accepted voice sample extensions.
const (
	ExtMP3 = ".mp3"
	ExtWAV = ".wav"
	ExtM4A = ".m4a"
)

// SampleSizeGuidance is the advertised upper bound for a voice sample. It is
// shown to users and never enforced.
const SampleSizeGuidance = 10 * megabyte

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Formatting constants.
const (
	secondsInMinute        = 60
	formatGB               = "%.2f GB"
	formatMB               = "%.2f MB"
	formatKB               = "%.2f KB"
	formatBytes            = "%d B"
	formatPlaybackTime     = "%d:%02d"
	formatDownloadFileName = "voice-clone-%d.mp3"
	invalidCharReplacement = "_"
)

var sampleContentTypes = map[string]string{
	"audio/mpeg":  ExtMP3,
	"audio/mp3":   ExtMP3,
	"audio/wav":   ExtWAV,
	"audio/wave":  ExtWAV,
	"audio/x-wav": ExtWAV,
	"audio/mp4":   ExtM4A,
	"audio/x-m4a": ExtM4A,
}

// SampleExtension returns the canonical extension for an uploaded sample,
// judged by file name first and content type second. It returns "" for
// anything that is not mp3, wav or m4a.
func SampleExtension(fileName, contentType string) string {
	switch ext := strings.ToLower(path.Ext(fileName)); ext {
	case ExtMP3, ExtWAV, ExtM4A:
		return ext
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	return sampleContentTypes[strings.ToLower(mediaType)]
}

var extensionContentTypes = map[string]string{
	ExtMP3: "audio/mpeg",
	ExtWAV: "audio/wav",
	ExtM4A: "audio/mp4",
}

// ContentType returns the media type for an object name, preferring the
// audio types above over the system table. Unknown names are
// "application/octet-stream".
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if contentType, ok := extensionContentTypes[ext]; ok {
		return contentType
	}

	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}

// IsAcceptedSample reports whether the upload is an mp3, wav or m4a file.
func IsAcceptedSample(fileName, contentType string) bool {
	return SampleExtension(fileName, contentType) != ""
}

// ExceedsSizeGuidance reports whether size is above SampleSizeGuidance.
func ExceedsSizeGuidance(size int64) bool {
	return size > SampleSizeGuidance
}

// DeriveVoiceName strips the last extension from a file name: "my voice.wav"
// becomes "my voice". Directory components are dropped first.
func DeriveVoiceName(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}

	ext := path.Ext(base)
	if len(ext) > 1 {
		return strings.TrimSuffix(base, ext)
	}

	return base
}

// FormatFileSize formats a size for display, e.g. "1.25 MB".
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}

// FormatPlaybackTime renders a player position as m:ss. Negative and
// non-finite inputs render as 0:00.
func FormatPlaybackTime(seconds float64) string {
	if seconds != seconds || seconds < 0 || seconds > float64(1<<53) {
		return fmt.Sprintf(formatPlaybackTime, 0, 0)
	}

	whole := int64(seconds)

	return fmt.Sprintf(formatPlaybackTime, whole/secondsInMinute, whole%secondsInMinute)
}

// DownloadFileName names a downloaded clip after the moment of download.
func DownloadFileName(at time.Time) string {
	return fmt.Sprintf(formatDownloadFileName, at.UnixMilli())
}

// SanitizeFilename removes or replaces characters that are invalid in most filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
