package coordinator

import (
	"sync"
	"time"

	"github.com/alphadesk/alphadesk/internal/models"
)

// NoticeBoard is the one resource worker goroutines share. Appends go
// through the mutex; everything else in a task touches only its own clone.
type NoticeBoard struct {
	mu      sync.Mutex
	notices []models.Notice
}

func NewNoticeBoard() *NoticeBoard {
	return &NoticeBoard{}
}

func (b *NoticeBoard) Post(from, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, models.Notice{
		From:    from,
		Message: message,
		At:      time.Now().UTC(),
	})
}

// Snapshot returns a copy of all notices posted so far.
func (b *NoticeBoard) Snapshot() []models.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Reset clears the board at a day boundary.
func (b *NoticeBoard) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = nil
}
