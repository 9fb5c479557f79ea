package listview

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind is the runtime category of a Value. It is fixed when the value is built.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "null"
	}
}

// Value is one field value of an Item: a scalar, a list or a nested record.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
	rec  Item
}

// Item is a source record as delivered by the data layer. Values may nest.
type Item map[string]Value

// FlatItem is a single-level record keyed by dotted field paths.
// It never holds a KindRecord value.
type FlatItem map[string]Value

func NullValue() Value               { return Value{} }
func StringValue(s string) Value     { return Value{kind: KindString, str: s} }
func NumberValue(f float64) Value    { return Value{kind: KindNumber, num: f} }
func BoolValue(b bool) Value         { return Value{kind: KindBool, b: b} }
func ListValue(items ...Value) Value { return Value{kind: KindList, list: items} }
func RecordValue(item Item) Value    { return Value{kind: KindRecord, rec: item} }

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) AsString() string  { return v.str }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsList() []Value   { return v.list }
func (v Value) AsRecord() Item    { return v.rec }

// Text renders the value for display and for group keys.
// Null and record values render as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Text()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

func (v Value) String() string {
	if v.kind == KindRecord {
		return fmt.Sprintf("%v", map[string]Value(v.rec))
	}
	return v.Text()
}

// Equal reports deep equality. Numbers compare with ==, so NaN is never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindRecord:
		return Item(v.rec).Equal(o.rec)
	}
	return false
}

// Equal reports whether both items hold the same keys with equal values.
func (it Item) Equal(o Item) bool {
	if len(it) != len(o) {
		return false
	}
	for k, v := range it {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Equal reports whether both flat items hold the same keys with equal values.
func (f FlatItem) Equal(o FlatItem) bool {
	return Item(f).Equal(Item(o))
}

// Item returns the flat item as a plain Item.
func (f FlatItem) Item() Item {
	return Item(f)
}

// ValueOf converts a decoded Go value into a Value. Maps become records,
// slices become lists and every numeric type becomes a number.
func ValueOf(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return v
	case Item:
		return RecordValue(v)
	case FlatItem:
		return RecordValue(Item(v))
	case string:
		return StringValue(v)
	case bool:
		return BoolValue(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return StringValue(v.String())
		}
		return NumberValue(f)
	case float64:
		return NumberValue(v)
	case float32:
		return NumberValue(float64(v))
	case int:
		return NumberValue(float64(v))
	case int8:
		return NumberValue(float64(v))
	case int16:
		return NumberValue(float64(v))
	case int32:
		return NumberValue(float64(v))
	case int64:
		return NumberValue(float64(v))
	case uint:
		return NumberValue(float64(v))
	case uint8:
		return NumberValue(float64(v))
	case uint16:
		return NumberValue(float64(v))
	case uint32:
		return NumberValue(float64(v))
	case uint64:
		return NumberValue(float64(v))
	case []byte:
		return StringValue(string(v))
	case []interface{}:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = ValueOf(e)
		}
		return ListValue(list...)
	case []string:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = StringValue(e)
		}
		return ListValue(list...)
	case map[string]interface{}:
		return RecordValue(ItemFromMap(v))
	default:
		return StringValue(fmt.Sprintf("%v", v))
	}
}

// ItemFromMap converts a decoded JSON object or database row into an Item.
func ItemFromMap(m map[string]interface{}) Item {
	item := make(Item, len(m))
	for k, v := range m {
		item[k] = ValueOf(v)
	}
	return item
}

// Interface converts the value back into plain Go data.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindRecord:
		out := make(map[string]interface{}, len(v.rec))
		for k, e := range v.rec {
			out[k] = e.Interface()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.num)), nil
	case KindList:
		return json.Marshal(v.list)
	case KindRecord:
		return json.Marshal(map[string]Value(v.rec))
	default:
		return json.Marshal(v.Interface())
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = ValueOf(raw)
	return nil
}

// ParseItems decodes a JSON array of objects into items.
func ParseItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// ParseItem decodes a single JSON object into an item.
func ParseItem(data []byte) (Item, error) {
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return item, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
