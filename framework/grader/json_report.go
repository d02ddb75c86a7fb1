package grader

import (
	"os"

	"github.com/cs106l/autograder/framework"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// JSONReport serializes the results of a run.
//
//	{"ok": false, "state": "halted", "parts": [
//	  {"index": 0, "name": "Autograder Setup", "special": true, "status": "failed",
//	   "durationMs": 12.5, "errors": ["missing file"]}]}
func JSONReport(results Results) ([]byte, error) {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("ok").Bool(results.OK())
	obj.Name("state").String(results.State.String())
	parts := obj.Name("parts").Array()
	for _, p := range results.Parts {
		writePartResult(&w, p)
	}
	parts.End()
	obj.End()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// PartResultJSON serializes one part result in the same form it has within JSONReport.
func PartResultJSON(p PartResult) ([]byte, error) {
	w := jwriter.NewWriter()
	writePartResult(&w, p)
	if err := w.Error(); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func writePartResult(w *jwriter.Writer, p PartResult) {
	obj := w.Object()
	obj.Name("index").Int(p.ID.Index)
	obj.Name("name").String(p.ID.Name)
	obj.Name("special").Bool(p.Special)
	obj.Name("status").String(p.Status.String())
	obj.Name("durationMs").Float64(float64(p.Duration.Microseconds()) / 1000)
	if len(p.Errors) != 0 {
		errs := obj.Name("errors").Array()
		for _, e := range p.Errors {
			w.String(e.Error())
		}
		errs.End()
	}
	obj.End()
}

// JSONLogger writes the JSONReport of a run to a file when the run finishes.
type JSONLogger struct {
	FilePath string
}

func (j JSONLogger) PartStarted(PartID)                                        {}
func (j JSONLogger) PartError(PartID, error)                                   {}
func (j JSONLogger) PartFinished(PartID, PartResult, framework.CapturedOutput) {}
func (j JSONLogger) PartSkipped(PartID, string)                                {}

func (j JSONLogger) RunFinished(results Results) error {
	data, err := JSONReport(results)
	if err != nil {
		return err
	}
	return os.WriteFile(j.FilePath, append(data, '\n'), 0644) //nolint:gosec
}
