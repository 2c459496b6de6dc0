package platform

import (
	"encoding/json"
	"fmt"
)

// Context is a typed, extensible payload exchanged between applications.
// Type is required; Name and ID are the well-known optional fields; anything
// else round-trips through Extra. Contexts are owned by the caller and never
// mutated by the engine.
type Context struct {
	Type  string
	Name  string
	ID    map[string]string
	Extra map[string]any
}

// MarshalJSON flattens Extra alongside the well-known fields.
func (c *Context) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		m[k] = v
	}
	m["type"] = c.Type
	if c.Name != "" {
		m["name"] = c.Name
	}
	if len(c.ID) > 0 {
		m["id"] = c.ID
	}
	return json.Marshal(m)
}

// UnmarshalJSON captures unknown fields into Extra.
func (c *Context) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = Context{}
	for k, v := range raw {
		switch k {
		case "type":
			if err := json.Unmarshal(v, &c.Type); err != nil {
				return fmt.Errorf("context field %q: %w", k, err)
			}
		case "name":
			if err := json.Unmarshal(v, &c.Name); err != nil {
				return fmt.Errorf("context field %q: %w", k, err)
			}
		case "id":
			if err := json.Unmarshal(v, &c.ID); err != nil {
				return fmt.Errorf("context field %q: %w", k, err)
			}
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("context field %q: %w", k, err)
			}
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = val
		}
	}
	return nil
}
