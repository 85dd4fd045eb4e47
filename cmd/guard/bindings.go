// bindings.go — assembling guard.Bindings from flags and TOML files.
package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/guardclause/guard"
)

// bindingFlags is the shared flag surface of eval and explain.
type bindingFlags struct {
	binds   []string // name=literal
	envFile string
}

// load merges the TOML file (if any) with the --bind flags; flags win.
func (bf *bindingFlags) load() (guard.Bindings, error) {
	b := guard.Bindings{}
	if bf.envFile != "" {
		var doc map[string]any
		if _, err := toml.DecodeFile(bf.envFile, &doc); err != nil {
			return nil, fmt.Errorf("reading %s: %w", bf.envFile, err)
		}
		keys := make([]string, 0, len(doc))
		for k := range doc {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := tomlToValue(doc[k])
			if err != nil {
				return nil, fmt.Errorf("%s: key %q: %w", bf.envFile, k, err)
			}
			b[k] = v
		}
	}
	for _, raw := range bf.binds {
		name, lit, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("--bind %q: expected name=literal", raw)
		}
		name = strings.TrimSpace(name)
		v, err := parseLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("--bind %s: %w", name, err)
		}
		b[name] = v
	}
	return b, nil
}

// parseLiteral evaluates a binding literal with the condition language
// itself: numbers, strings, true/false/null, arrays and maps all come for
// free, and expressions over builtins ("len('abc')") work too.
func parseLiteral(src string) (guard.Value, error) {
	cond, err := guard.ParseCondition(src)
	if err != nil {
		return guard.Value{}, err
	}
	return guard.EvalExpr(cond.AST(), guard.NewEnv(guard.CoreEnv()))
}

// tomlToValue boxes a decoded TOML value.
func tomlToValue(x any) (guard.Value, error) {
	switch v := x.(type) {
	case bool:
		return guard.Bool(v), nil
	case int64:
		return guard.Int(v), nil
	case float64:
		return guard.Num(v), nil
	case string:
		return guard.Str(v), nil
	case []any:
		items := make([]guard.Value, 0, len(v))
		for _, e := range v {
			ev, err := tomlToValue(e)
			if err != nil {
				return guard.Value{}, err
			}
			items = append(items, ev)
		}
		return guard.Array(items...), nil
	case map[string]any:
		m := guard.NewMap()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ev, err := tomlToValue(v[k])
			if err != nil {
				return guard.Value{}, err
			}
			m.Set(k, ev)
		}
		return guard.MapV(m), nil
	}
	return guard.Value{}, fmt.Errorf("unsupported TOML value of type %T", x)
}
