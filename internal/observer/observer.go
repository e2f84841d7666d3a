// Package observer watches a document file for mutations and re-runs the
// active search against fresh parses. Bursts of writes are debounced, refresh
// work is rate limited, and unchanged content (same fingerprint) is skipped
// entirely.
package observer

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/domfind/domfind/internal/debug"
	"github.com/domfind/domfind/internal/dom"
	"github.com/domfind/domfind/internal/errors"
	"github.com/domfind/domfind/internal/session"
)

// Options tunes the observer's batching behavior.
type Options struct {
	// Debounce is the quiet period after the last write before a refresh.
	Debounce time.Duration
	// RefreshLimit caps sustained refreshes per second.
	RefreshLimit rate.Limit
	// RefreshBurst allows short bursts above the sustained limit.
	RefreshBurst int
}

// DefaultOptions matches interactive-editing behavior: refresh shortly after
// the user stops typing, never more than a few times a second.
func DefaultOptions() Options {
	return Options{
		Debounce:     150 * time.Millisecond,
		RefreshLimit: 4,
		RefreshBurst: 1,
	}
}

// Observer re-searches a session whenever its backing file changes.
type Observer struct {
	path    string
	sess    *session.Session
	watcher *fsnotify.Watcher
	limiter *rate.Limiter
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	timer       *time.Timer
	fingerprint uint64

	// OnRefresh, when set, observes each completed refresh.
	OnRefresh func(session.Result, error)
}

// New creates an observer for the session's backing file. The session's
// current document provides the baseline fingerprint.
func New(path string, sess *session.Session, opts Options) (*Observer, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewConnectivityError("filesystem watch", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Observer{
		path:        path,
		sess:        sess,
		watcher:     watcher,
		limiter:     rate.NewLimiter(opts.RefreshLimit, opts.RefreshBurst),
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		fingerprint: sess.Document().Fingerprint(),
	}
	return o, nil
}

// Start begins watching. The parent directory is watched rather than the file
// itself because editors commonly replace files via rename.
func (o *Observer) Start() error {
	if err := o.watcher.Add(filepath.Dir(o.path)); err != nil {
		return errors.NewConnectivityError("filesystem watch", err)
	}
	o.wg.Add(1)
	go o.processEvents()
	debug.LogObserve("observer started for %s\n", o.path)
	return nil
}

// Stop disconnects the watcher and waits for in-flight refreshes. Pending
// debounced events are dropped; the session is being torn down anyway.
func (o *Observer) Stop() {
	o.cancel()
	_ = o.watcher.Close()
	o.mu.Lock()
	o.stopTimerLocked()
	o.mu.Unlock()
	o.wg.Wait()
	debug.LogObserve("observer stopped for %s\n", o.path)
}

// stopTimerLocked cancels the pending debounce timer. The WaitGroup slot is
// reserved when the timer is armed, so a successful Stop must release it; a
// timer that already fired releases it itself when the refresh returns.
func (o *Observer) stopTimerLocked() {
	if o.timer != nil && o.timer.Stop() {
		o.wg.Done()
	}
	o.timer = nil
}

func (o *Observer) processEvents() {
	defer o.wg.Done()

	for {
		select {
		case <-o.ctx.Done():
			return

		case event, ok := <-o.watcher.Events:
			if !ok {
				return
			}
			o.handleEvent(event)

		case err, ok := <-o.watcher.Errors:
			if !ok {
				return
			}
			debug.LogObserve("watch error: %v\n", err)
		}
	}
}

func (o *Observer) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(o.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	debug.LogObserve("observer: %v for %s\n", event.Op, event.Name)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopTimerLocked()
	o.wg.Add(1)
	o.timer = time.AfterFunc(o.opts.Debounce, o.refresh)
}

// refresh reparses the document and re-runs the last search. Parse failures
// are transient: the file is often mid-write, and the next event retries.
func (o *Observer) refresh() {
	defer o.wg.Done()

	if o.ctx.Err() != nil {
		return
	}
	if err := o.limiter.Wait(o.ctx); err != nil {
		return
	}

	doc, err := dom.ParseFile(o.path)
	if err != nil {
		err = errors.NewTransientError("document reload", err)
		debug.LogObserve("observer: %v\n", err)
		o.report(session.Result{}, err)
		return
	}

	fp := doc.Fingerprint()
	o.mu.Lock()
	unchanged := fp == o.fingerprint
	o.fingerprint = fp
	o.mu.Unlock()
	if unchanged {
		debug.LogObserve("observer: content unchanged, skipping refresh\n")
		return
	}

	res, err := o.sess.ReplaceDocument(doc)
	if err != nil {
		debug.LogObserve("observer: re-search failed: %v\n", err)
	} else {
		debug.LogObserve("observer: refreshed, %d matches\n", res.TotalMatches)
	}
	o.report(res, err)
}

func (o *Observer) report(res session.Result, err error) {
	if o.OnRefresh != nil {
		o.OnRefresh(res, err)
	}
}
