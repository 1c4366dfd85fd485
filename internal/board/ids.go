package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultIDPrefix is used when the board settings do not declare one.
const DefaultIDPrefix = "T"

// GenerateIssueID produces a globally unique issue id of the form
// <prefix>-YYYYMMDD-HHMMSS-<random>, using the UTC clock. The timestamp
// component keeps ids sortable by creation time; the random suffix makes
// collisions between concurrent creators vanishingly unlikely.
func GenerateIssueID(prefix string) string {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	ts := time.Now().UTC().Format("20060102-150405")
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%s-%s", prefix, ts, suffix)
}

// generateCommentID produces a short unique id for one comment history entry.
func generateCommentID() string {
	return "c-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
