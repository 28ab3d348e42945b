package compiler

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/zeromem/internal/ir"
)

// Validation error codes (E120-E129)
const (
	ErrSchemaViolation  = "E120" // input does not satisfy #CompilerInput
	ErrEmptyLabel       = "E121" // subject/object normalizes to ""
	ErrEmptyPredicate   = "E122" // predicate normalizes to ""
	ErrInputUnencodable = "E123" // input cannot be encoded (e.g. NaN confidence)
)

// inputSchema is the opt-in contract for compiler input. Compile itself
// never enforces it; identity derivation is the same whether or not an
// input validates.
const inputSchema = `
#Tuple: {
	subject:    string & != ""
	predicate:  string & != ""
	object:     string & != ""
	confidence: number & >=0 & <=1
}

#Context: {
	event_time:  string & =~"^[0-9]{4}-[0-9]{2}-[0-9]{2}"
	source:      string & != ""
	scope:       string & != ""
	agent_id?:   string
	session_id?: string
	metadata?: [string]: string
}

#CompilerInput: {
	utterance?: string
	tuples: [...#Tuple]
	context: #Context
}
`

var (
	// schemaMu serializes use of the schema's cue.Context, which is not safe
	// for concurrent use.
	schemaMu sync.Mutex

	// compilerInputSchema compiles inputSchema once and returns #CompilerInput.
	compilerInputSchema = sync.OnceValue(func() cue.Value {
		schema := cuecontext.New().CompileString(inputSchema)
		if err := schema.Err(); err != nil {
			// The schema is a constant; failure here is a programming error.
			panic(fmt.Sprintf("compiler: invalid input schema: %v", err))
		}
		return schema.LookupPath(cue.ParsePath("#CompilerInput"))
	})
)

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateInput checks input against the CUE schema plus the
// normalization rules that CUE cannot express.
// Returns all errors found (does not fail-fast). An empty result means valid.
func ValidateInput(input ir.CompilerInput) []ValidationError {
	data, err := json.Marshal(input)
	if err != nil {
		return []ValidationError{{
			Field:   "input",
			Message: fmt.Sprintf("cannot encode input: %v", err),
			Code:    ErrInputUnencodable,
		}}
	}

	errs := schemaErrors(data)

	for i, tuple := range input.Tuples {
		if tuple.Subject != "" && NormalizeLabel(tuple.Subject) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tuples.%d.subject", i),
				Message: "subject normalizes to an empty label",
				Code:    ErrEmptyLabel,
			})
		}
		if tuple.Object != "" && NormalizeLabel(tuple.Object) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tuples.%d.object", i),
				Message: "object normalizes to an empty label",
				Code:    ErrEmptyLabel,
			})
		}
		if tuple.Predicate != "" && NormalizePredicate(tuple.Predicate) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("tuples.%d.predicate", i),
				Message: "predicate normalizes to an empty string",
				Code:    ErrEmptyPredicate,
			})
		}
	}

	return errs
}

// schemaErrors unifies the JSON encoding of an input with #CompilerInput.
// Values must be built in the schema's own cue.Context.
func schemaErrors(data []byte) []ValidationError {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	schema := compilerInputSchema()
	unified := schema.Unify(schema.Context().CompileBytes(data))
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: strings.TrimSpace(cueerrors.Details(e, nil)),
			Code:    ErrSchemaViolation,
		})
	}
	return errs
}
