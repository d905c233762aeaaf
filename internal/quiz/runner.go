package quiz

import (
	"errors"
	"sync"
	"time"

	"elephant-quiz/internal/models"
)

var ErrRunnerStopped = errors.New("session runner stopped")

// Observer is told about session changes. Callbacks run on the runner's
// event loop, one at a time.
type Observer interface {
	OnQuestion(s Session)
	OnTick(s Session)
	OnFinished(s Session)
}

type nopObserver struct{}

func (nopObserver) OnQuestion(Session) {}
func (nopObserver) OnTick(Session)     {}
func (nopObserver) OnFinished(Session) {}

type requestKind int

const (
	requestAnswer requestKind = iota
	requestSnapshot
	requestReset
)

type request struct {
	kind  requestKind
	index int // -1 answers whatever question is current
	label models.OptionLabel
	reply chan reply
}

type reply struct {
	session Session
	err     error
}

// Runner drives a single session. Player actions and timer ticks are handled
// on one goroutine so they never overlap; a request already waiting when a
// tick fires is handled first.
type Runner struct {
	requests chan request
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewRunner starts the event loop for session. The ticker is created before
// NewRunner returns and is stopped as soon as the session leaves Playing.
func NewRunner(session Session, clock Clock, interval time.Duration, observer Observer) *Runner {
	if observer == nil {
		observer = nopObserver{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	r := &Runner{
		requests: make(chan request),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	var ticker Ticker
	if session.Status == models.StatusPlaying {
		ticker = clock.NewTicker(interval)
	}
	go r.run(session, ticker, observer)
	return r
}

func (r *Runner) run(session Session, ticker Ticker, observer Observer) {
	defer close(r.done)

	var ticks <-chan time.Time
	if ticker != nil {
		ticks = ticker.C()
	}
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			ticks = nil
		}
	}
	defer stopTicker()

	for {
		select {
		case req := <-r.requests:
			session = r.handle(session, req, observer)
			if session.Status != models.StatusPlaying {
				stopTicker()
			}
			continue
		case <-r.quit:
			return
		default:
		}

		select {
		case req := <-r.requests:
			session = r.handle(session, req, observer)
			if session.Status != models.StatusPlaying {
				stopTicker()
			}
		case <-ticks:
			session = session.Tick()
			if session.Status == models.StatusFinished {
				stopTicker()
				observer.OnFinished(session)
				continue
			}
			observer.OnTick(session)
		case <-r.quit:
			return
		}
	}
}

func (r *Runner) handle(session Session, req request, observer Observer) Session {
	var (
		next Session
		err  error
	)
	switch req.kind {
	case requestAnswer:
		if req.index < 0 {
			next, err = session.Answer(req.label)
		} else {
			next, err = session.AnswerAt(req.index, req.label)
		}
		if err == nil {
			if next.Status == models.StatusFinished {
				observer.OnFinished(next)
			} else {
				observer.OnQuestion(next)
			}
		}
	case requestReset:
		next, err = session.ResetToIdle()
	default:
		next = session
	}
	req.reply <- reply{session: next, err: err}
	return next
}

func (r *Runner) do(req request) (Session, error) {
	req.reply = make(chan reply, 1)
	select {
	case r.requests <- req:
	case <-r.done:
		return Session{}, ErrRunnerStopped
	}
	rep := <-req.reply
	return rep.session, rep.err
}

// Answer answers the current question.
func (r *Runner) Answer(label models.OptionLabel) (Session, error) {
	return r.do(request{kind: requestAnswer, index: -1, label: label})
}

// AnswerAt answers question index, rejecting stale indexes.
func (r *Runner) AnswerAt(index int, label models.OptionLabel) (Session, error) {
	if index < 0 {
		return Session{}, ErrStaleQuestion
	}
	return r.do(request{kind: requestAnswer, index: index, label: label})
}

func (r *Runner) Snapshot() (Session, error) {
	return r.do(request{kind: requestSnapshot})
}

// Reset moves a finished session back to Idle.
func (r *Runner) Reset() (Session, error) {
	return r.do(request{kind: requestReset})
}

// Stop ends the event loop and its ticker. It is safe to call more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

// Done is closed once the event loop has exited.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}
