package forest

import "fmt"

// Violation describes one structural problem found while building a forest.
type Violation struct {
	Message string `json:"message"`
	ID      ID     `json:"id,omitempty"`
}

// ShapeError aggregates every violation detected in a query shape.
// A shape that fails to build is unusable; there is no partial forest.
type ShapeError []*Violation

func (e ShapeError) Error() string {
	msg := "invalid query shape:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.ID != "" {
			line += fmt.Sprintf(" (%s)", v.ID)
		}
		msg += line + "\n"
	}
	return msg
}

func violation(id ID, format string, args ...any) *Violation {
	return &Violation{Message: fmt.Sprintf(format, args...), ID: id}
}
