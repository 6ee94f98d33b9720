package evaluator

import (
	"encoding/json"
	"math"

	"github.com/thomasrohde/pylisp/pkg/formatter"
)

// ValueToJSON marshals a Value to JSON bytes.
// Integers stay integers; non-finite floats become their text form since
// JSON has no literal for them.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

type funcJSON struct {
	Function string   `json:"function"`
	Params   []string `json:"params"`
	Body     string   `json:"body"`
}

type builtinJSON struct {
	Builtin string `json:"builtin"`
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case nil:
		return nil

	case Int:
		return val.Value

	case Float:
		if math.IsInf(val.Value, 0) || math.IsNaN(val.Value) {
			return val.String()
		}
		return val.Value

	case Str:
		return val.Value

	case Bool:
		return val.Value

	case *Func:
		params := val.Params
		if params == nil {
			params = []string{}
		}
		return funcJSON{Function: val.Name, Params: params, Body: formatter.Format(val.Body)}

	case *Builtin:
		return builtinJSON{Builtin: val.Name}
	}

	return nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
