// Package importer validates invoice JSON documents produced outside the
// app before they are opened as drafts.
//
// Documents are checked against an embedded CUE schema: at least one line
// item, known enumerations, a three-letter currency code and tax rates
// between 0 and 100. Every violation is reported, not only the first.
package importer

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/invoiceforge/internal/model"
)

//go:embed invoice.cue
var schemaSource string

// Violation is one schema failure.
type Violation struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (v Violation) String() string {
	if v.Line > 0 {
		return fmt.Sprintf("line %d: %s", v.Line, v.Message)
	}
	return v.Message
}

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Name       string      `json:"name"`
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("%s: invalid invoice: %s", e.Name, strings.Join(parts, "; "))
}

// Validate checks data against the invoice schema and decodes it. Missing
// fields take the blank-invoice defaults for the current time.
func Validate(name string, data []byte) (model.InvoiceRecord, error) {
	return ValidateAt(name, data, time.Now())
}

// ValidateAt is Validate with defaults taken at now.
func ValidateAt(name string, data []byte, now time.Time) (model.InvoiceRecord, error) {
	if err := check(name, data); err != nil {
		return model.InvoiceRecord{}, err
	}
	rec, err := model.DecodeInvoiceRecord(data, model.ToPersistable(model.DefaultInvoice(now), false))
	if err != nil {
		return model.InvoiceRecord{}, &ValidationError{Name: name, Violations: []Violation{{Message: err.Error()}}}
	}
	return rec, nil
}

func check(name string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("invoice.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile invoice schema: %w", err)
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return &ValidationError{Name: name, Violations: violations(err)}
	}
	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return &ValidationError{Name: name, Violations: violations(err)}
	}

	unified := schema.LookupPath(cue.ParsePath("#Invoice")).Unify(doc)
	var found []Violation
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		found = violations(err)
	}

	// The schema only checks the shape of the code.
	if code, err := doc.LookupPath(cue.ParsePath("currency")).String(); err == nil {
		if _, err := model.ParseCurrency(code); err != nil {
			found = append(found, Violation{Path: "currency", Message: "currency: " + err.Error()})
		}
	}

	if len(found) > 0 {
		return &ValidationError{Name: name, Violations: found}
	}
	return nil
}

func violations(err error) []Violation {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return []Violation{{Message: err.Error()}}
	}
	out := make([]Violation, 0, len(errs))
	for _, e := range errs {
		path := e.Path()
		if len(path) > 0 && path[0] == "#Invoice" {
			path = path[1:]
		}
		v := Violation{
			Path:    strings.Join(path, "."),
			Message: e.Error(),
		}
		for _, pos := range errors.Positions(e) {
			if pos.Filename() != "invoice.cue" {
				v.Line = pos.Line()
				break
			}
		}
		out = append(out, v)
	}
	return out
}
