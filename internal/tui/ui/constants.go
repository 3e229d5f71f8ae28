// Package ui provides shared styles, key bindings and dimensions for the TUI.
package ui

// Default component dimensions.
const (
	// DefaultWidth is the width assumed before the first WindowSizeMsg.
	DefaultWidth = 80

	// DefaultHeight is the height assumed before the first WindowSizeMsg.
	DefaultHeight = 24

	// DefaultProgressBarWidth is the default width for progress bars.
	DefaultProgressBarWidth = 40

	// DefaultPathCharLimit bounds the file path input.
	DefaultPathCharLimit = 512
)
