package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/cs106l/autograder/archive"
	"github.com/cs106l/autograder/assignment"
	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"
	"github.com/cs106l/autograder/service"
)

const defaultPort = 8111

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("autograder v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	if params.serve {
		if err := serve(params); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	results, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !results.OK() {
		os.Exit(1)
	}
}

// session is everything that stays the same between grading runs of one process.
type session struct {
	manifest    assignment.Manifest
	filters     grader.RegexFilters
	archive     archive.Store
	debugLogger framework.Logger
}

func newSession(params *commandParams) (*session, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(params); err != nil {
			return nil, err
		}
	}

	s := &session{filters: params.filters, debugLogger: framework.NullLogger()}
	if params.debug {
		s.debugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	s.manifest = assignment.Default()
	if params.configFile != "" {
		m, err := assignment.Load(params.configFile)
		if err != nil {
			return nil, err
		}
		s.manifest = m
	}
	if params.castxmlPath != "" {
		s.manifest.CastXML.Path = params.castxmlPath
	}

	if params.archiveDSN != "" {
		store, err := archive.Open(params.archiveDSN)
		if err != nil {
			return nil, err
		}
		s.archive = store
	}
	return s, nil
}

// grade runs every part of the assignment against the submission in dir.
func (s *session) grade(ctx context.Context, dir string, logger grader.PartLogger) (grader.Results, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return grader.Results{}, err
	}
	g, err := s.manifest.Build(dir, s.manifest.Parser(dir, s.debugLogger))
	if err != nil {
		return grader.Results{}, err
	}

	if s.archive != nil {
		submission := filepath.Base(dir)
		logger = &grader.MultiLogger{Loggers: []grader.PartLogger{
			logger,
			archive.Logger{
				Store:      s.archive,
				Key:        s.manifest.Name + ":" + submission,
				Submission: submission,
				Context:    ctx,
				Debug:      s.debugLogger,
			},
		}}
	}

	return grader.Run(grader.TestConfiguration{
		Filter:      s.filters,
		Logger:      logger,
		DebugLogger: s.debugLogger,
		Context:     ctx,
	}, g), nil
}

func run(params commandParams) (*grader.Results, error) {
	s, err := newSession(&params)
	if err != nil {
		return nil, err
	}
	params.filters.Describe(os.Stdout)

	loggers := []grader.PartLogger{
		grader.ConsoleLogger{
			ShowOutputOnFailure: true,
			ShowOutputOnSuccess: !params.quiet,
		},
	}
	if params.jUnitFile != "" {
		loggers = append(loggers, grader.NewJUnitLogger(params.jUnitFile, s.manifest.Name, params.filters))
	}
	if params.jsonFile != "" {
		loggers = append(loggers, grader.JSONLogger{FilePath: params.jsonFile})
	}

	results, err := s.grade(context.Background(), params.dir, &grader.MultiLogger{Loggers: loggers})
	if err != nil {
		return nil, err
	}

	fmt.Println()
	grader.PrintFailures(os.Stdout, results)

	if results.LogErr != nil {
		return nil, fmt.Errorf("error writing log: %v", results.LogErr)
	}

	if params.recordFailures != "" {
		if err := writeFailures(params.recordFailures, results); err != nil {
			return nil, err
		}
	}

	return &results, nil
}

func serve(params commandParams) error {
	s, err := newSession(&params)
	if err != nil {
		return err
	}
	root, err := filepath.Abs(params.dir)
	if err != nil {
		return err
	}

	svc := service.New(root, s.grade, s.debugLogger)
	svc.RetainRuns(params.keepRuns)
	defer svc.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", params.port),
		Handler:           svc,
		ReadHeaderTimeout: 10 * time.Second, // arbitrary but non-infinite timeout to avoid Slowloris Attack
	}
	fmt.Printf("Grading submissions under %s on port %d\n", root, params.port)
	return server.ListenAndServe()
}

func writeFailures(path string, results grader.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create suppression file: %v", err)
	}
	defer func() { _ = f.Close() }()
	for _, part := range results.Failures {
		fmt.Fprintln(f, part.ID.Name)
	}
	return nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		// Ignore blank lines
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := "^" + regexp.QuoteMeta(line) + "$"
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
