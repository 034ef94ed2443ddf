package coffees

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Fields is a decoded create/update body. A nil pointer means the key was
// absent (or null); Extra holds every key that is not a known column.
type Fields struct {
	Name     *string        `mapstructure:"name" validate:"omitempty,max=255"`
	Brand    *string        `mapstructure:"brand" validate:"omitempty,max=255"`
	Origin   *string        `mapstructure:"origin" validate:"omitempty,max=255"`
	Price    *float64       `mapstructure:"price"`
	Flavours *[]string      `mapstructure:"flavours" validate:"omitempty,max=32,dive,max=64"`
	Extra    map[string]any `mapstructure:",remain"`
}

// Keys clients may send but never set.
var reservedKeys = []string{"id", "created_at", "updated_at", "deleted_at"}

var validate = validator.New()

// BodyError describes why a body was rejected. It matches ErrInvalidBody.
type BodyError struct{ Msg string }

func (e *BodyError) Error() string { return e.Msg }
func (e *BodyError) Unwrap() error { return ErrInvalidBody }

func invalidBody(format string, args ...any) error {
	return &BodyError{Msg: fmt.Sprintf(format, args...)}
}

// DecodeFields converts a JSON object body into Fields.
func DecodeFields(body map[string]any) (Fields, error) {
	var f Fields
	if body == nil {
		return f, invalidBody("body must be a JSON object")
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &f,
		DecodeHook: rejectNumberAsString,
		// Keys match columns exactly; "Name" is an extra attribute, not name.
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return f, errors.Wrap(err, "build decoder")
	}
	if err := dec.Decode(body); err != nil {
		return f, invalidBody("%s", flattenDecodeError(err))
	}

	for _, k := range reservedKeys {
		delete(f.Extra, k)
	}

	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return f, invalidBody("%s failed %s=%s", strings.ToLower(fe.Field()), fe.Tag(), fe.Param())
		}
		return f, invalidBody("%v", err)
	}
	return f, nil
}

// Empty reports whether no field at all was supplied.
func (f Fields) Empty() bool {
	return f.Name == nil && f.Brand == nil && f.Origin == nil &&
		f.Price == nil && f.Flavours == nil && len(f.Extra) == 0
}

// applyTo merges f into c. Extra keys with a nil value remove the attribute.
func (f Fields) applyTo(c *Coffee) {
	if f.Name != nil {
		c.Name = *f.Name
	}
	if f.Brand != nil {
		c.Brand = *f.Brand
	}
	if f.Origin != nil {
		c.Origin = *f.Origin
	}
	if f.Price != nil {
		c.Price = *f.Price
	}
	if f.Flavours != nil {
		c.Flavours = append(StringList{}, (*f.Flavours)...)
	}
	if c.Flavours == nil {
		c.Flavours = StringList{}
	}
	if c.Attributes == nil {
		c.Attributes = Attributes{}
	}
	for k, v := range f.Extra {
		if v == nil {
			delete(c.Attributes, k)
			continue
		}
		c.Attributes[k] = v
	}
}

// rejectNumberAsString stops mapstructure from accepting a json.Number,
// whose kind is string, where a string field is expected.
func rejectNumberAsString(from, to reflect.Type, data any) (any, error) {
	if from == reflect.TypeOf(json.Number("")) && to.Kind() == reflect.String {
		return nil, fmt.Errorf("expected type 'string', got number %v", data)
	}
	return data, nil
}

func flattenDecodeError(err error) string {
	var merr *mapstructure.Error
	if errors.As(err, &merr) && len(merr.Errors) > 0 {
		return strings.Join(merr.Errors, "; ")
	}
	return err.Error()
}
