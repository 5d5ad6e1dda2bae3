package runtime

import (
	"lambda-lang/internal/diag"
	"lambda-lang/internal/span"
)

// Context is one frame of the call stack. It is used for tracebacks only.
type Context struct {
	Name   string
	Parent *Context
	// Entry is where the frame was entered from, in the parent's source.
	Entry span.Position
}

// Traceback returns the frames from the outermost context down to c, with
// at as the current position inside c.
func (c *Context) Traceback(at span.Position) []diag.Frame {
	var frames []diag.Frame
	pos := at
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		frames = append(frames, diag.Frame{File: pos.File, Line: pos.Line, Name: ctx.Name})
		pos = ctx.Entry
	}
	for l, r := 0, len(frames)-1; l < r; l, r = l+1, r-1 {
		frames[l], frames[r] = frames[r], frames[l]
	}
	return frames
}

func (c *Context) errorf(code string, s span.Span, format string, args ...interface{}) *diag.Diagnostic {
	return diag.Runtimef(code, s, c.Traceback(s.Start), format, args...)
}
