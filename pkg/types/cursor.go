package types

import "fmt"

// CursorMode selects which side of a cursor id a timeline page comes from.
type CursorMode int

const (
	// CursorNone fetches the most recent page.
	CursorNone CursorMode = iota
	// CursorBefore fetches posts older than the cursor id, excluding it.
	CursorBefore
	// CursorAfter fetches posts newer than the cursor id, excluding it.
	CursorAfter
)

func (m CursorMode) String() string {
	switch m {
	case CursorNone:
		return "none"
	case CursorBefore:
		return "before"
	case CursorAfter:
		return "after"
	default:
		return fmt.Sprintf("CursorMode(%d)", int(m))
	}
}

// Cursor bounds a timeline request. The zero value is NoCursor.
type Cursor struct {
	Mode CursorMode
	ID   int64
}

// NoCursor returns a cursor that fetches the newest page.
func NoCursor() Cursor { return Cursor{Mode: CursorNone} }

// Before returns a cursor for posts with id strictly less than id.
func Before(id int64) Cursor { return Cursor{Mode: CursorBefore, ID: id} }

// After returns a cursor for posts with id strictly greater than id.
func After(id int64) Cursor { return Cursor{Mode: CursorAfter, ID: id} }

func (c Cursor) String() string {
	if c.Mode == CursorNone {
		return "none"
	}
	return fmt.Sprintf("%s(%d)", c.Mode, c.ID)
}
