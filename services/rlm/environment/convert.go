// Copyright (C) 2026 WORKWAY (engineering@workway.co)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package environment

import (
	"go.starlark.net/starlark"
)

// fromStarlark converts an interpreter value into native Go types so
// GetVariable callers never handle Starlark values directly.
//
// Ints that fit in int64 become int64; larger ints fall back to their
// decimal string. Dicts become map[string]any keyed by the Starlark string
// form of each key; note the Go map loses the dict's insertion order, which
// is preserved inside the namespace itself. Anything without a natural Go
// shape (functions, modules) is rendered via its String form.
func fromStarlark(v starlark.Value) any {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.String:
		return string(v)
	case starlark.Int:
		if n, ok := v.Int64(); ok {
			return n
		}
		return v.String()
	case starlark.Float:
		return float64(v)
	case *starlark.List:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			out[i] = fromStarlark(v.Index(i))
		}
		return out
	case starlark.Tuple:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = fromStarlark(item)
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, v.Len())
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			out[key] = fromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}
