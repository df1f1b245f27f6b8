// Package voices implements the voice sample upload flow of the Voices screen.
package voices

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-studio/internal/core"
	"github.com/book-expert/voice-studio/internal/media"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/google/uuid"
)

var (
	// ErrUnsupportedSample indicates that the file is not mp3, wav or m4a.
	ErrUnsupportedSample = errors.New("unsupported sample type, expected mp3, wav or m4a")
	// ErrSampleEmpty indicates that the upload carries no bytes.
	ErrSampleEmpty = errors.New("sample is empty")
	// ErrNameEmpty indicates that no voice name could be derived.
	ErrNameEmpty = errors.New("voice name cannot be empty")
)

// Upload is one submitted voice sample. Name is optional and falls back to
// the file name without its extension.
type Upload struct {
	FileName    string
	Name        string
	ContentType string
	Data        []byte
}

// Result describes the profile created by an upload.
type Result struct {
	Profile core.VoiceProfile
	// ExceedsGuidance is set when the sample is larger than the advertised limit.
	ExceedsGuidance bool
}

// Uploader stores samples and registers them as voice profiles.
type Uploader struct {
	session   *session.Session
	store     core.ObjectStore
	log       *logger.Logger
	urlPrefix string
	now       func() time.Time
	newID     func() string
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithIDSource overrides the profile id generator.
func WithIDSource(newID func() string) UploaderOption {
	return func(u *Uploader) {
		u.newID = newID
	}
}

// NewUploader creates an Uploader. Sample references are urlPrefix followed
// by the object key, e.g. "/objects/<key>".
func NewUploader(
	sess *session.Session,
	store core.ObjectStore,
	urlPrefix string,
	log *logger.Logger,
	opts ...UploaderOption,
) *Uploader {
	uploader := &Uploader{
		session:   sess,
		store:     store,
		log:       log,
		urlPrefix: urlPrefix,
		now:       time.Now,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(uploader)
	}

	return uploader
}

// Upload validates the sample, stores it and adds a profile for it. The
// current selection is left unchanged.
func (u *Uploader) Upload(ctx context.Context, upload Upload) (Result, error) {
	ext := media.SampleExtension(upload.FileName, upload.ContentType)
	if ext == "" {
		return Result{}, fmt.Errorf("%w: '%s'", ErrUnsupportedSample, upload.FileName)
	}

	if len(upload.Data) == 0 {
		return Result{}, ErrSampleEmpty
	}

	name := strings.TrimSpace(upload.Name)
	if name == "" {
		name = strings.TrimSpace(media.DeriveVoiceName(upload.FileName))
	}

	if name == "" {
		return Result{}, ErrNameEmpty
	}

	size := int64(len(upload.Data))
	exceeds := media.ExceedsSizeGuidance(size)

	if exceeds {
		u.log.Warn("Sample '%s' is %s, above the recommended %s",
			upload.FileName, media.FormatFileSize(size), media.FormatFileSize(media.SampleSizeGuidance))
	}

	profileID := u.newID()
	sampleKey := profileID + ext

	err := u.store.Upload(ctx, sampleKey, upload.Data)
	if err != nil {
		return Result{}, fmt.Errorf("failed to upload sample for key '%s': %w", sampleKey, err)
	}

	profile := core.VoiceProfile{
		ID:        profileID,
		Name:      name,
		CreatedAt: u.now(),
		SampleURL: u.urlPrefix + sampleKey,
		IsDefault: false,
	}

	err = u.session.AddProfile(profile)
	if err != nil {
		deleteErr := u.store.Delete(ctx, sampleKey)
		if deleteErr != nil {
			u.log.Warn("Failed to remove orphaned sample '%s': %v", sampleKey, deleteErr)
		}

		return Result{}, fmt.Errorf("failed to add voice profile: %w", err)
	}

	u.log.Info("Added voice profile %s (%s) from %s", profile.ID, profile.Name, upload.FileName)

	return Result{Profile: profile, ExceedsGuidance: exceeds}, nil
}
