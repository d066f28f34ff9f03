package bridge

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	// SubjectChanges is the global change event subject.
	SubjectChanges = "couch.changes"
)

// BuildChangeSubject builds the granular change subject for one database.
// Characters NATS subjects reserve are replaced.
func BuildChangeSubject(db string) string {
	safe := strings.NewReplacer(".", "_", "/", "_", "*", "_", ">", "_").Replace(db)
	return fmt.Sprintf("%s.%s", SubjectChanges, safe)
}
