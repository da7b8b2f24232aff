package value

import (
	"github.com/Jeffail/gabs/v2"
)

// ToJSON renders v as a JSON document (spec SPEC_FULL §4.3 HTTP
// expansion): Object/List convert structurally, Number/Text/Bool/Null
// convert to their obvious JSON counterparts, and anything else falls
// back to its Display() text.
func ToJSON(v Value) (string, error) {
	c, err := toGabs(v)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

func toGabs(v Value) (*gabs.Container, error) {
	c := gabs.New()
	if err := setGabs(c, v); err != nil {
		return nil, err
	}
	return c, nil
}

func setGabs(c *gabs.Container, v Value) error {
	switch vv := v.(type) {
	case Number:
		_, err := c.Set(float64(vv))
		return err
	case Text:
		_, err := c.Set(string(vv))
		return err
	case Bool:
		_, err := c.Set(bool(vv))
		return err
	case nullType:
		_, err := c.Set(nil)
		return err
	case *List:
		arr := gabs.New()
		arr.Array()
		for _, elem := range vv.Elements {
			elemContainer, err := toGabs(elem)
			if err != nil {
				return err
			}
			if err := arr.ArrayAppend(elemContainer.Data()); err != nil {
				return err
			}
		}
		_, err := c.Set(arr.Data())
		return err
	case *Object:
		obj := gabs.New()
		for _, k := range vv.Keys() {
			ev, _ := vv.Get(k)
			elemContainer, err := toGabs(ev)
			if err != nil {
				return err
			}
			if _, err := obj.Set(elemContainer.Data(), k); err != nil {
				return err
			}
		}
		_, err := c.Set(obj.Data())
		return err
	default:
		_, err := c.Set(v.Display())
		return err
	}
}

// FromJSON parses raw JSON text into a Value: objects become *Object,
// arrays become *List, and JSON scalars map onto Number/Text/Bool/Null.
func FromJSON(raw string) (Value, error) {
	c, err := gabs.ParseJSON([]byte(raw))
	if err != nil {
		return nil, err
	}
	return fromGabsData(c.Data()), nil
}

func fromGabsData(data interface{}) Value {
	switch d := data.(type) {
	case nil:
		return Null
	case float64:
		return Number(d)
	case string:
		return Text(d)
	case bool:
		return Bool(d)
	case []interface{}:
		elems := make([]Value, len(d))
		for i, e := range d {
			elems[i] = fromGabsData(e)
		}
		return NewList(elems...)
	case map[string]interface{}:
		obj := NewObject()
		for k, e := range d {
			obj.Set(k, fromGabsData(e))
		}
		return obj
	default:
		return Null
	}
}
