package coffees

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Coffee is the stored resource. Known columns are typed; every other
// descriptive field supplied by clients lives in Attributes.
type Coffee struct {
	ID         int64      `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Brand      string     `db:"brand" json:"brand"`
	Origin     string     `db:"origin" json:"origin"`
	Price      float64    `db:"price" json:"price"`
	Flavours   StringList `db:"flavours" json:"flavours"`
	Attributes Attributes `db:"attributes" json:"attributes"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
}

// Deleted reports whether the coffee carries a tombstone.
func (c *Coffee) Deleted() bool { return c.DeletedAt != nil }

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	out := StringList{}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &out); err != nil {
			return err
		}
	}
	*l = out
	return nil
}

// Attributes is stored as a JSON object.
type Attributes map[string]any

func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(a))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Attributes) Scan(src any) error {
	b, err := jsonBytes(src)
	if err != nil {
		return err
	}
	return a.UnmarshalJSON(b)
}

// UnmarshalJSON keeps numbers as json.Number so large integers survive a
// round trip through storage.
func (a *Attributes) UnmarshalJSON(b []byte) error {
	out := Attributes{}
	if len(b) > 0 && !bytes.Equal(b, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		if err := dec.Decode((*map[string]any)(&out)); err != nil {
			return err
		}
	}
	*a = out
	return nil
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}

func (c *Coffee) clone() Coffee {
	out := *c
	if c.Flavours != nil {
		out.Flavours = append(StringList{}, c.Flavours...)
	}
	out.Attributes = make(Attributes, len(c.Attributes))
	for k, v := range c.Attributes {
		out.Attributes[k] = v
	}
	if c.DeletedAt != nil {
		t := *c.DeletedAt
		out.DeletedAt = &t
	}
	return out
}
