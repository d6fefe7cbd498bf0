package tui

import "time"

const (
	sidebarWidth = 30
	panelGap     = 2
	detailMax    = 110

	// headerLines and footerLines are the rows around the main panels.
	headerLines   = 3
	footerLines   = 3
	listMinHeight = 3

	formLabelWidth = 34
	formMinRows    = 4

	operationTimeout = 2 * time.Minute
)
