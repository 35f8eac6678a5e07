package content

// Props values come back from JSON, so numbers arrive as float64 and lists
// as []interface{}. Freshly decoded asset files may still hold int values.

// Int returns an integer property
func (it Item) Int(key string) (int, bool) {
	switch v := it.Props[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// Bool returns a boolean property, false when absent
func (it Item) Bool(key string) bool {
	v, _ := it.Props[key].(bool)
	return v
}

// Strings returns a list-of-strings property, skipping non-string entries
func (it Item) Strings(key string) []string {
	switch v := it.Props[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
