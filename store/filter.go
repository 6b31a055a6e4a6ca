package store

import (
	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// transcriptFilterEnv declares the identifiers a list filter expression may
// reference, e.g. `agent == "researcher" && pinned`.
var transcriptFilterEnv *cel.Env

func init() {
	env, err := cel.NewEnv(
		cel.Variable("agent", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("pinned", cel.BoolType),
		cel.Variable("turn_count", cel.IntType),
	)
	if err != nil {
		panic(err)
	}
	transcriptFilterEnv = env
}

// compileTranscriptFilter compiles a CEL filter expression into a predicate
// over transcripts. An invalid expression is a caller error.
func compileTranscriptFilter(expr string) (func(*Transcript) (bool, error), error) {
	ast, issues := transcriptFilterEnv.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if ast.OutputType() != cel.BoolType {
		return nil, errors.Errorf("filter %q must evaluate to bool", expr)
	}

	prg, err := transcriptFilterEnv.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}

	return func(t *Transcript) (bool, error) {
		out, _, err := prg.Eval(map[string]any{
			"agent":      t.AgentName,
			"title":      t.Title,
			"pinned":     t.Pinned,
			"turn_count": int64(len(t.Turns)),
		})
		if err != nil {
			return false, errors.Wrap(err, "failed to evaluate filter")
		}
		matched, ok := out.Value().(bool)
		if !ok {
			return false, errors.Errorf("filter %q returned non-bool", expr)
		}
		return matched, nil
	}, nil
}
