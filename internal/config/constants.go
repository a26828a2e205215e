package config

import "time"

// Timeouts.
const (
	DefaultNotifyTimeout = 10 * time.Second
	DefaultDBTimeout     = 5 * time.Second
	DefaultLockTTL       = 30 * time.Second
	AutoLockAfter        = 10 * time.Minute
)

// Messaging limits.
const (
	// MaxMessageLength bounds any text handed to the transport.
	MaxMessageLength = 4000
	// MaxCaptionLength is Telegram's limit for media captions.
	MaxCaptionLength = 1024

	// RedoFeedbackPrefix marks stored feedback of a redo decision.
	RedoFeedbackPrefix = "REDO REQUESTED: "

	// TruncationSuffix appended to truncated labels.
	TruncationSuffix = "…"
)

// Storage layout.
const (
	AppName               = "marathon"
	DBFileName            = "marathon.db"
	VoiceDir              = "voice"
	CertificatesDir       = "certificates"
	CertificateExt        = "pdf"
	MaxPassphraseAttempts = 5
)

// Listing.
const (
	PageSize       = 5
	TaskLabelWidth = 20
)
