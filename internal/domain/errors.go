package domain

import "errors"

// Filesystem errors
var (
	// ErrNotFound indicates the requested node does not exist
	ErrNotFound = errors.New("node not found")

	// ErrUserNotFound indicates the user has no home folder on this server
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidArgument indicates a node of the wrong kind was supplied,
	// e.g. a file where a folder is required
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPath indicates a path is not located below the given folder
	ErrInvalidPath = errors.New("invalid path")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrAlreadyExists indicates the node already exists
	ErrAlreadyExists = errors.New("node already exists")
)

// Export errors
var (
	// ErrExportInProgress indicates another export for the same user is running
	ErrExportInProgress = errors.New("export already in progress")

	// ErrUnsupportedFormat indicates an unknown manifest encoding
	ErrUnsupportedFormat = errors.New("unsupported output format")
)

// Config errors
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")

	// ErrBackendNotSupported indicates an unknown filesystem backend type
	ErrBackendNotSupported = errors.New("filesystem backend not supported")
)
