// Package ops tracks the lifecycle of asynchronous backend operations.
//
// Each operation owns a Tracker moving through Idle -> Busy ->
// Succeeded/Failed. Every dispatch takes a token; a settlement carrying a
// token that has since been superseded is reported stale and must not
// touch any state derived from the operation.
package ops

type Status int

const (
	Idle Status = iota
	Busy
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Busy:
		return "busy"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Tracker is the state machine for one operation. The zero value is Idle.
type Tracker struct {
	status Status
	errMsg string
	last   int
}

// Begin transitions to Busy, clears any previous error, and returns the
// token identifying this dispatch. Tokens increase monotonically; a later
// Begin supersedes every earlier in-flight dispatch.
func (t *Tracker) Begin() int {
	t.last++
	t.status = Busy
	t.errMsg = ""
	return t.last
}

// Settle applies the outcome of the dispatch identified by token. It
// returns false, leaving the tracker untouched, when a newer dispatch has
// superseded the token or the token was already consumed.
func (t *Tracker) Settle(token int, err error) bool {
	if token != t.last || t.status != Busy {
		return false
	}
	if err != nil {
		t.status = Failed
		t.errMsg = err.Error()
	} else {
		t.status = Succeeded
		t.errMsg = ""
	}
	return true
}

func (t *Tracker) Status() Status { return t.status }

func (t *Tracker) Busy() bool { return t.status == Busy }

// Err returns the failure message from the last settled dispatch, empty
// unless the tracker is in Failed.
func (t *Tracker) Err() string { return t.errMsg }

// DeletionSet tracks deletions independently per target url, so deleting
// two urls at once keeps two separate busy states.
type DeletionSet struct {
	byURL map[string]*Tracker
}

func NewDeletionSet() *DeletionSet {
	return &DeletionSet{byURL: make(map[string]*Tracker)}
}

// Begin marks the url's deletion Busy and returns its dispatch token.
func (d *DeletionSet) Begin(url string) int {
	t, ok := d.byURL[url]
	if !ok {
		t = &Tracker{}
		d.byURL[url] = t
	}
	return t.Begin()
}

// Settle applies a deletion outcome for the url; stale tokens are
// discarded as with Tracker.Settle. Settling an unknown url is a no-op.
func (d *DeletionSet) Settle(url string, token int, err error) bool {
	t, ok := d.byURL[url]
	if !ok {
		return false
	}
	return t.Settle(token, err)
}

// Busy reports whether a deletion of the url is in flight.
func (d *DeletionSet) Busy(url string) bool {
	t, ok := d.byURL[url]
	return ok && t.Busy()
}

// Status returns the url's deletion status, Idle when never dispatched.
func (d *DeletionSet) Status(url string) Status {
	t, ok := d.byURL[url]
	if !ok {
		return Idle
	}
	return t.Status()
}

// AnyBusy reports whether any deletion is in flight.
func (d *DeletionSet) AnyBusy() bool {
	for _, t := range d.byURL {
		if t.Busy() {
			return true
		}
	}
	return false
}
