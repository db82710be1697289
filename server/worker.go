package server

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/kestrel/session"
)

// workspace holds the latest analysis of every open document. It is owned
// by the worker goroutine.
type workspace struct {
	analyses map[protocol.DocumentUri]*session.Analysis
}

// analyze replaces the analysis of uri with one of text.
func (ws *workspace) analyze(uri protocol.DocumentUri, text string) *session.Analysis {
	a := session.AnalyzeSource(text)
	ws.analyses[uri] = a
	return a
}

func (ws *workspace) analysis(uri protocol.DocumentUri) *session.Analysis {
	return ws.analyses[uri]
}

func (ws *workspace) forget(uri protocol.DocumentUri) {
	delete(ws.analyses, uri)
}

// request is a unit of work to be executed on the worker goroutine.
type request struct {
	fn   func(*workspace) any
	done chan result
}

type result struct {
	value any
	err   error
}

// Worker serializes all analysis through a single goroutine. Sessions and
// checkers are not safe for concurrent use, and glsp dispatches handlers
// concurrently.
type Worker struct {
	ws       *workspace
	requests chan request
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		ws:       &workspace{analyses: make(map[protocol.DocumentUri]*session.Analysis)},
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn, recovering from panics.
func (w *Worker) execute(fn func(*workspace) any) result {
	var res result
	func() {
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("%v", r)
			}
		}()
		res.value = fn(w.ws)
	}()
	return res
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. A panic in fn is returned as an error.
func (w *Worker) Do(fn func(*workspace) any) (any, error) {
	req := request{
		fn:   fn,
		done: make(chan result, 1),
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, errStopped
	}
	select {
	case res := <-req.done:
		return res.value, res.err
	case <-w.quit:
		return nil, errStopped
	}
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}
