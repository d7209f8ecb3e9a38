package entity

import (
	"encoding/json"
	"fmt"
)

// PayloadKind tags which member of a Payload is populated.
type PayloadKind string

const (
	PayloadObject PayloadKind = "object"
	PayloadList   PayloadKind = "list"
	PayloadText   PayloadKind = "text"
)

// Payload is the structured part of a model answer. The model returns loosely typed JSON,
// so the shape is carried explicitly instead of type-switched at every use site.
// A Text payload is the degraded form and serializes as {"text": raw}.
// Order, when set, keeps the member order the model wrote; it survives a JSON round trip.
type Payload struct {
	Kind   PayloadKind
	Object map[string]any
	List   []any
	Text   string
	Order  KeyOrder
}

func ObjectPayload(m map[string]any) Payload {
	if m == nil {
		m = map[string]any{}
	}
	return Payload{Kind: PayloadObject, Object: m}
}

func ListPayload(l []any) Payload {
	if l == nil {
		l = []any{}
	}
	return Payload{Kind: PayloadList, List: l}
}

func TextPayload(raw string) Payload {
	return Payload{Kind: PayloadText, Text: raw}
}

// PayloadFromValue wraps a decoded JSON value. Scalars become text payloads.
func PayloadFromValue(v any) Payload {
	switch t := v.(type) {
	case map[string]any:
		return ObjectPayload(t)
	case []any:
		return ListPayload(t)
	case string:
		return TextPayload(t)
	case nil:
		return TextPayload("")
	default:
		return TextPayload(fmt.Sprint(t))
	}
}

// PayloadFromJSON decodes b into a payload that remembers its object member order.
func PayloadFromJSON(b []byte) (Payload, error) {
	v, order, err := DecodeOrdered(b)
	if err != nil {
		return Payload{}, err
	}
	p := PayloadFromValue(v)
	if p.Kind != PayloadText {
		p.Order = order
	}
	return p, nil
}

// Value returns the payload as a plain JSON-compatible value.
func (p Payload) Value() any {
	switch p.Kind {
	case PayloadObject:
		return p.Object
	case PayloadList:
		return p.List
	default:
		return map[string]any{"text": p.Text}
	}
}

// Field looks up a top-level key. Degraded payloads expose only "text".
func (p Payload) Field(name string) (any, bool) {
	switch p.Kind {
	case PayloadObject:
		v, ok := p.Object[name]
		return v, ok
	case PayloadText:
		if name == "text" {
			return p.Text, true
		}
	}
	return nil, false
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Kind == PayloadText {
		return json.Marshal(p.Value())
	}
	return p.Order.Marshal(p.Value())
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	decoded, err := PayloadFromJSON(b)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
