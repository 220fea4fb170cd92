// Package engine connects the realtime audio callback to the control side.
//
// The control side parses profiles, designs coefficients and builds a
// complete [filter.Chain], then publishes it with [Engine.Install]. The audio
// callback calls [Engine.Process], which picks up the latest chain once per
// block and optionally crossfades from the previous one.
package engine
