package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cs106l/autograder/framework/grader"
	"github.com/cs106l/autograder/service"
)

type commandParams struct {
	dir            string
	configFile     string
	castxmlPath    string
	filters        grader.RegexFilters
	skipFile       string
	recordFailures string
	jUnitFile      string
	jsonFile       string
	archiveDSN     string
	debug          bool
	quiet          bool
	serve          bool
	port           int
	keepRuns       int
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.dir, "dir", ".", "directory containing the submission (or, with -serve, the root of all submissions)")
	fs.StringVar(&c.configFile, "config", "", "assignment manifest (YAML or JSON); defaults to the class structure assignment")
	fs.StringVar(&c.castxmlPath, "castxml", "", "path to the castxml executable, overriding the manifest")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select parts to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select parts not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file containing part names to skip, one per line")
	fs.StringVar(&c.recordFailures, "record-failures", "", "file to write the names of failed parts to")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.jsonFile, "json", "", "write a JSON report to the specified path")
	fs.StringVar(&c.archiveDSN, "record", "", "archive results to redis://, consul:// or dynamodb:// store")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&c.quiet, "quiet", false, "only show the output of parts that failed")
	fs.BoolVar(&c.serve, "serve", false, "run as an HTTP grading service instead of grading once")
	fs.IntVar(&c.port, "port", defaultPort, "port that the grading service will listen on")
	fs.IntVar(&c.keepRuns, "keep-runs", service.DefaultRetainedRuns, "number of finished runs the grading service keeps")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return false
	}
	return true
}
