// Package service exposes grading over HTTP, for graders that collect submissions from a web
// front end instead of running the command line tool in each student's directory.
//
//	POST /grade            {"directory": "...", "async": false}
//	GET  /runs/{id}        the JSON report of a run
//	GET  /runs/{id}/events a replayable server-sent event stream of the run's progress
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// GradeFunc grades the submission in dir, sending progress to logger. It returns an error only
// if grading could not be attempted at all; a failing submission is reported in the Results.
type GradeFunc func(ctx context.Context, dir string, logger grader.PartLogger) (grader.Results, error)

// DefaultRetainedRuns is how many finished runs a Service keeps, unless changed with RetainRuns.
const DefaultRetainedRuns = 100

type Service struct {
	root        string
	grade       GradeFunc
	handler     http.Handler
	streams     *eventsource.Server
	debugLogger framework.Logger
	runs        map[string]*run
	runOrder    []string
	retainRuns  int
	lastRunID   int
	lock        sync.Mutex
}

type gradeRequest struct {
	directory string
	async     bool
}

// New creates a Service. Requested directories are resolved against root and may not be outside
// it; an empty root allows any directory.
func New(root string, grade GradeFunc, debugLogger framework.Logger) *Service {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = debugLogger

	s := &Service{
		root:        root,
		grade:       grade,
		streams:     streams,
		debugLogger: debugLogger,
		runs:        make(map[string]*run),
		retainRuns:  DefaultRetainedRuns,
	}

	router := mux.NewRouter()
	router.HandleFunc("/grade", s.postGrade).Methods("POST")
	router.HandleFunc("/runs/{id}", s.getRun).Methods("GET")
	router.HandleFunc("/runs/{id}/events", s.getRunEvents).Methods("GET")
	s.handler = router

	return s
}

func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RetainRuns sets how many finished runs are kept for GET /runs/{id} and event replay. When a new
// run starts, the oldest finished runs beyond that number are forgotten. Runs that are still going
// are never dropped.
func (s *Service) RetainRuns(n int) {
	s.lock.Lock()
	s.retainRuns = n
	s.lock.Unlock()
}

// Close ends every open event stream.
func (s *Service) Close() {
	s.streams.Close()
}

func (s *Service) postGrade(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := parseGradeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dir, err := s.resolveDirectory(req.directory)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	rn := s.newRun(dir)
	location := "/runs/" + rn.id
	s.debugLogger.Printf("run %s: grading %s", rn.id, dir)

	if req.async {
		go s.execute(rn)
		w.Header().Set("Location", location)
		writeJSON(w, http.StatusAccepted, runStatus(rn.id, grader.Running))
		return
	}

	s.execute(rn)
	w.Header().Set("Location", location)
	s.writeRunResult(w, rn)
}

func parseGradeRequest(body []byte) (gradeRequest, error) {
	var req gradeRequest
	r := jreader.NewReader(body)
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "directory":
			req.directory = r.String()
		case "async":
			req.async = r.Bool()
		}
	}
	if err := r.Error(); err != nil {
		return req, fmt.Errorf("malformed request body: %w", err)
	}
	if req.directory == "" {
		return req, errors.New("directory is required")
	}
	return req, nil
}

func (s *Service) resolveDirectory(dir string) (string, error) {
	if s.root != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(s.root, dir)
		}
		if !within(s.root, dir) {
			return "", fmt.Errorf("directory %q is outside of %s", dir, s.root)
		}
	}
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("no such directory: %s", dir)
	}
	if info, err := os.Stat(resolved); err != nil || !info.IsDir() {
		return "", fmt.Errorf("no such directory: %s", dir)
	}
	if s.root != "" {
		// symlinks inside the root must not lead out of it
		root, err := filepath.EvalSymlinks(s.root)
		if err != nil || !within(root, resolved) {
			return "", fmt.Errorf("directory %q is outside of %s", dir, s.root)
		}
	}
	return resolved, nil
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *Service) newRun(dir string) *run {
	s.lock.Lock()
	s.lastRunID++
	id := strconv.Itoa(s.lastRunID)
	rn := newRun(id, dir, func(e eventsource.Event) {
		s.streams.Publish([]string{id}, e)
	})
	s.runs[id] = rn
	s.runOrder = append(s.runOrder, id)
	evicted := s.evictFinishedRuns()
	s.lock.Unlock()

	for _, old := range evicted {
		s.streams.Unregister(old, false)
	}
	s.streams.Register(id, rn)
	return rn
}

// evictFinishedRuns forgets the oldest finished runs until no more than retainRuns finished runs
// remain, and returns their IDs. The caller must hold the lock.
func (s *Service) evictFinishedRuns() []string {
	finished := 0
	for _, id := range s.runOrder {
		if _, done := s.runs[id].result(); done {
			finished++
		}
	}
	var evicted []string
	kept := s.runOrder[:0]
	for _, id := range s.runOrder {
		if finished > s.retainRuns {
			if _, done := s.runs[id].result(); done {
				delete(s.runs, id)
				evicted = append(evicted, id)
				finished--
				continue
			}
		}
		kept = append(kept, id)
	}
	s.runOrder = kept
	return evicted
}

func (s *Service) execute(rn *run) {
	results, err := s.grade(context.Background(), rn.dir, rn)
	if err != nil {
		s.debugLogger.Printf("run %s: could not grade: %s", rn.id, err)
		rn.fail(err)
		return
	}
	if err := rn.complete(results); err != nil {
		s.debugLogger.Printf("run %s: could not serialize results: %s", rn.id, err)
		return
	}
	s.debugLogger.Printf("run %s: %s with %d failure(s)", rn.id, results.State, len(results.Failures))
}

func (s *Service) findRun(r *http.Request) *run {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.runs[mux.Vars(r)["id"]]
}

func (s *Service) getRun(w http.ResponseWriter, r *http.Request) {
	rn := s.findRun(r)
	if rn == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.writeRunResult(w, rn)
}

func (s *Service) writeRunResult(w http.ResponseWriter, rn *run) {
	result, finished := rn.result()
	switch {
	case !finished:
		writeJSON(w, http.StatusAccepted, runStatus(rn.id, grader.Running))
	case result.err != nil:
		writeError(w, http.StatusInternalServerError, result.err)
	default:
		writeJSON(w, http.StatusOK, result.report)
	}
}

func (s *Service) getRunEvents(w http.ResponseWriter, r *http.Request) {
	rn := s.findRun(r)
	if rn == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	s.streams.Handler(rn.id)(w, r)
	s.debugLogger.Printf("run %s: end of stream request", rn.id)
}

func runStatus(id string, state grader.RunState) []byte {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("id").String(id)
	obj.Name("state").String(state.String())
	obj.End()
	return w.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(err.Error()))
}
