package feed

import (
	"strconv"
	"strings"
	"time"

	"backend-snapgraph/internal/apperr"
)

// Page bounds a feed read. The zero value reads the whole feed.
type Page struct {
	Limit  int
	Before *Cursor
}

// Cursor is the position of the last post a client has seen; the next page
// starts strictly after it in feed order.
type Cursor struct {
	CreatedAt time.Time
	PostID    int64
}

// String renders the cursor as "<unix-nanos>_<post id>".
func (c Cursor) String() string {
	return strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "_" + strconv.FormatInt(c.PostID, 10)
}

func ParseCursor(raw string) (*Cursor, error) {
	nanos, id, ok := strings.Cut(raw, "_")
	if !ok {
		return nil, apperr.Validation("Invalid cursor")
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, apperr.Validation("Invalid cursor")
	}
	postID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || postID <= 0 {
		return nil, apperr.Validation("Invalid cursor")
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), PostID: postID}, nil
}
