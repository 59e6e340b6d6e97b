package config

// Dataset and index defaults.
const (
	DefaultDatasetPath    = ""
	DefaultIndexBatchSize = 25
	DefaultIndexRate      = 0.0
)

// Cache defaults.
const (
	DefaultPatchEntries     = 64
	DefaultDocumentEntries  = 32
	DefaultDocumentMaxBytes = "64MB"
)

// Compare defaults.
const (
	DefaultDiffMaxLines   = 8000
	DefaultDistanceSlack  = 200
	DefaultDistanceFactor = 4
)

// Search defaults.
const (
	DefaultSearchLimit   = 50
	DefaultSnippetRadius = 40
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)
