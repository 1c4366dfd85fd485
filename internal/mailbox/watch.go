package mailbox

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watch invokes handler for every new pending event that lands in the
// agent's mailbox directory. It returns a cancel function that stops the
// watcher and waits for the delivery goroutine to exit.
//
// Watch is a convenience over polling ListPending: event files are picked
// up through fsnotify on the mailbox directory. Events created before Watch
// was called are not delivered; list them with ListPending first. An event
// file that cannot be read when its notification arrives (e.g. mid-write by
// a slow writer) is skipped; it remains pending and will surface through
// ListPending.
func (s *Store) Watch(agentID string, handler func(Event)) (cancel func(), err error) {
	dir := s.Dir(agentID)
	// The directory must exist before it can be watched.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create mailbox directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch mailbox directory: %w", err)
	}

	var wg sync.WaitGroup
	delivered := make(map[string]bool)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !isEventFile(ev.Name) {
					continue // lock/backup/staging sidecars
				}

				event, ok2 := s.loadEvent(context.Background(), ev.Name)
				if !ok2 || !event.Pending() || delivered[event.ID] {
					continue
				}
				delivered[event.ID] = true
				handler(event)

			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("mailbox watcher error", "agent_id", agentID, "error", werr.Error())
			}
		}
	}()

	return func() {
		_ = watcher.Close()
		wg.Wait()
	}, nil
}
