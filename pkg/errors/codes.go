// Package errors provides error code constants for ASRT sessions.
// Error codes are organized by category for consistent handling and lookup.
package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrConfigNotFound indicates the settings file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the settings file could not be parsed.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates settings values are invalid.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigWriteFailed indicates the settings file could not be written.
	ErrConfigWriteFailed = "CONFIG_WRITE_FAILED"

	// ErrTextNotFound indicates the language text file is missing or empty.
	ErrTextNotFound = "TEXT_NOT_FOUND"
)

// -----------------------------------------------------------------------------
// Design Error Codes
// -----------------------------------------------------------------------------
// Block designs that cannot be realized. These are fatal for a run.

const (
	// ErrNoGoInsufficientEligible indicates a no-go quota exceeds the
	// eligible slots of the required trial type.
	ErrNoGoInsufficientEligible = "NOGO_INSUFFICIENT_ELIGIBLE"

	// ErrNoGoNoValidDistribution indicates no non-adjacent no-go selection
	// was found within the attempt budget.
	ErrNoGoNoValidDistribution = "NOGO_NO_VALID_DISTRIBUTION"
)

// -----------------------------------------------------------------------------
// Device Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrDeviceOpenFailed indicates a serial device could not be opened.
	ErrDeviceOpenFailed = "DEVICE_OPEN_FAILED"

	// ErrDeviceWriteFailed indicates a trigger write failed.
	ErrDeviceWriteFailed = "DEVICE_WRITE_FAILED"

	// ErrDeviceReadFailed indicates reading a response device failed.
	ErrDeviceReadFailed = "DEVICE_READ_FAILED"

	// ErrKeyboardUnavailable indicates stdin could not be put in raw mode.
	ErrKeyboardUnavailable = "KEYBOARD_UNAVAILABLE"
)

// -----------------------------------------------------------------------------
// IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrIOWriteFailed indicates a data file could not be written.
	ErrIOWriteFailed = "IO_WRITE_FAILED"

	// ErrIOPermissionDenied indicates insufficient permissions for the data directory.
	ErrIOPermissionDenied = "IO_PERMISSION_DENIED"

	// ErrStoreFailed indicates the SQLite trial store failed.
	ErrStoreFailed = "STORE_FAILED"

	// ErrManifestInvalid indicates a session manifest could not be decoded.
	ErrManifestInvalid = "MANIFEST_INVALID"
)

// -----------------------------------------------------------------------------
// Session Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrSessionAborted indicates the experimenter pressed escape.
	ErrSessionAborted = "SESSION_ABORTED"

	// ErrSessionInvalidInfo indicates participant/session info is invalid.
	ErrSessionInvalidInfo = "SESSION_INVALID_INFO"
)

// -----------------------------------------------------------------------------
// Internal Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrInternalError indicates an unexpected internal error.
	ErrInternalError = "INTERNAL_ERROR"
)

// codeCategories maps each code to its category.
var codeCategories = map[string]Category{
	ErrConfigNotFound:           CategoryConfig,
	ErrConfigParseFailed:        CategoryConfig,
	ErrConfigInvalid:            CategoryConfig,
	ErrConfigWriteFailed:        CategoryConfig,
	ErrTextNotFound:             CategoryConfig,
	ErrNoGoInsufficientEligible: CategoryDesign,
	ErrNoGoNoValidDistribution:  CategoryDesign,
	ErrDeviceOpenFailed:         CategoryDevice,
	ErrDeviceWriteFailed:        CategoryDevice,
	ErrDeviceReadFailed:         CategoryDevice,
	ErrKeyboardUnavailable:      CategoryDevice,
	ErrIOWriteFailed:            CategoryIO,
	ErrIOPermissionDenied:       CategoryIO,
	ErrStoreFailed:              CategoryIO,
	ErrManifestInvalid:          CategoryIO,
	ErrSessionAborted:           CategorySession,
	ErrSessionInvalidInfo:       CategorySession,
	ErrInternalError:            CategoryInternal,
}

// CategoryFor returns the category a code belongs to.
func CategoryFor(code string) Category {
	if c, ok := codeCategories[code]; ok {
		return c
	}
	return CategoryInternal
}
