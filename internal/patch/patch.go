package patch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultFiles returns the signal logs rewritten by a run, in processing order
func DefaultFiles() []string {
	return []string{
		"signals_bob_WoL_log.json",
		"signals_claude_log.json",
		"signals_PROX2_log.json",
		"signals_bob_3_log.json",
		"signals_bob_2_log.json",
		"signals_gemini_log.json",
	}
}

// NewPatcher creates a Patcher for the default files in the working directory
func NewPatcher() *Patcher {
	return &Patcher{
		Files:  DefaultFiles(),
		Output: os.Stdout,
		Log:    logrus.StandardLogger(),
	}
}

// Patcher rewrites positive timeouts in a fixed list of signal logs
type Patcher struct {
	Files []string
	// Dir is prepended to every file name; empty means the working directory
	Dir    string
	Output io.Writer
	Log    logrus.FieldLogger
}

// Target pairs an input log with the file its patched copy is written to
type Target struct {
	Name       string
	OutputName string
	InputPath  string
	OutputPath string
}

// Result is the outcome of patching one file
type Result struct {
	Target  Target
	Patched int
	Err     error
}

// LoadError reports a log file that could not be read or parsed
type LoadError struct {
	Name string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Name, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// WriteError reports an output file that could not be written
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// OutputName derives "<base>_updated<ext>" from an input file name
func OutputName(name string) string {
	base, ext := splitExt(name)
	return base + "_updated" + ext
}

// splitExt splits name before the extension of its last element. Leading
// dots of the element do not start an extension, so ".hidden" has none.
func splitExt(name string) (string, string) {
	ext := filepath.Ext(name)
	if ext == "" {
		return name, ""
	}
	elem := filepath.Base(name)
	if strings.TrimLeft(elem[:len(elem)-len(ext)], ".") == "" {
		return name, ""
	}
	return name[:len(name)-len(ext)], ext
}

// Targets returns one Target per file, in order
func (p *Patcher) Targets() []Target {
	targets := make([]Target, 0, len(p.Files))
	for _, name := range p.Files {
		out := OutputName(name)
		targets = append(targets, Target{
			Name:       name,
			OutputName: out,
			InputPath:  filepath.Join(p.Dir, name),
			OutputPath: filepath.Join(p.Dir, out),
		})
	}
	return targets
}

// PatchFile loads, patches and writes a single target
func (p *Patcher) PatchFile(t Target) Result {
	log := p.logger().WithField("file", t.Name)

	doc, err := LoadDocument(t.InputPath)
	if err != nil {
		return Result{Target: t, Err: &LoadError{Name: t.Name, Err: err}}
	}

	patched, err := doc.Patch()
	if err != nil {
		// only records that do not decode fail here
		return Result{Target: t, Err: &LoadError{Name: t.Name, Err: err}}
	}
	log.WithFields(logrus.Fields{
		"records": len(doc),
		"patched": patched,
	}).Debug("scanned signals")

	if err := doc.WriteFile(t.OutputPath); err != nil {
		return Result{Target: t, Patched: patched, Err: &WriteError{Name: t.OutputName, Err: err}}
	}
	return Result{Target: t, Patched: patched}
}

// Run patches every file in order and reports each outcome. A failing file
// never stops the run.
func (p *Patcher) Run() []Result {
	results := make([]Result, 0, len(p.Files))
	for _, t := range p.Targets() {
		res := p.PatchFile(t)
		p.report(res)
		results = append(results, res)
	}
	return results
}

func (p *Patcher) report(res Result) {
	out := p.Output
	if out == nil {
		out = os.Stdout
	}
	// the stdout line is the report; log entries stay below the default level
	log := p.logger().WithField("file", res.Target.Name)

	var loadErr *LoadError
	var writeErr *WriteError
	switch {
	case errors.As(res.Err, &loadErr):
		fmt.Fprintf(out, "Error loading %s: %v\n", loadErr.Name, loadErr.Err)
		log.WithError(loadErr.Err).Info("load failed")
	case errors.As(res.Err, &writeErr):
		fmt.Fprintf(out, "Error writing %s: %v\n", writeErr.Name, writeErr.Err)
		log.WithError(writeErr.Err).Info("write failed")
	case res.Err != nil:
		fmt.Fprintf(out, "Error processing %s: %v\n", res.Target.Name, res.Err)
		log.WithError(res.Err).Info("failed")
	default:
		fmt.Fprintf(out, "Updated file saved as %s\n", res.Target.OutputName)
		log.WithField("patched", res.Patched).Info("saved")
	}
}

func (p *Patcher) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}
