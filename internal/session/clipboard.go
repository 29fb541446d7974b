package session

import "sync"

// Clipboard holds text copied on the server until the next page render hands it to
// the browser.
type Clipboard struct {
	mu      sync.Mutex
	pending string
	ready   bool
}

// WriteText queues text for the browser clipboard.
func (c *Clipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = text
	c.ready = true

	return nil
}

// Take returns the queued text once.
func (c *Clipboard) Take() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return "", false
	}

	text := c.pending
	c.pending = ""
	c.ready = false

	return text, true
}
