package domain

import "errors"

// Not found errors
var (
	ErrAudioNotFound         = errors.New("audio file not found in storage")
	ErrTranscriptionNotFound = errors.New("transcription not found")
)

// Validation errors
var (
	ErrInvalidFileID        = errors.New("audio_file_id is required and must not contain path separators")
	ErrMissingStorageTarget = errors.New("supabase_url and supabase_key are required")
)

// Pipeline errors
var (
	ErrModelNotReady      = errors.New("transcription model is not ready")
	ErrEmptyTranscription = errors.New("no notes detected in audio")
	ErrUploadFailed       = errors.New("failed to upload MIDI file")
	ErrStatusUpdateFailed = errors.New("failed to update transcription status")
	ErrChecksumMismatch   = errors.New("model checkpoint checksum mismatch")
	ErrTranscriberFailed  = errors.New("transcriber request failed")
)
