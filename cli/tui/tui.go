package tui

import (
	"fmt"
	"maps"
	"slices"
)

// View names accepted by Run and RenderStatic.
const (
	ViewInspectMessages = "inspect_messages"
	ViewStatsSession    = "stats_session"
)

// view pairs the interactive and static renderings of one view.
type view struct {
	run    func(viewType string, data any) error
	static func(viewType string, data any) string
}

var views = map[string]view{
	ViewInspectMessages: {run: RunInspectTUI, static: RenderInspectStatic},
	ViewStatsSession:    {run: runSummary, static: renderSummary},
}

// Run starts the interactive program for a view.
func Run(viewType string, data any) error {
	v, ok := views[viewType]
	if !ok {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
	return v.run(viewType, data)
}

// RenderStatic renders a view once, without a terminal program.
func RenderStatic(viewType string, data any) (string, error) {
	v, ok := views[viewType]
	if !ok {
		return "", fmt.Errorf("no static rendering for %s", viewType)
	}
	return v.static(viewType, data), nil
}

// IsTUISupported reports whether viewType names a view.
func IsTUISupported(viewType string) bool {
	_, ok := views[viewType]
	return ok
}

// SupportedTUIViews returns the view names in sorted order.
func SupportedTUIViews() []string {
	return slices.Sorted(maps.Keys(views))
}
