package types

// JSONMap stores free-form specification key/value pairs (Size, Material,
// GSM and so on) as a jsonb column.
type JSONMap map[string]string

// Get returns the value for key, tolerating a nil map.
func (m JSONMap) Get(key string) string {
	if m == nil {
		return ""
	}
	return m[key]
}
