package element

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ToMap renders e as a JSON-compatible map. The generation link is reported
// by ID only.
func ToMap(e *Element) map[string]any {
	m := map[string]any{
		"id":   e.id,
		"kind": e.kind.String(),
	}
	if e.ref != nil {
		m["symbol"] = e.ref.Name
		if e.ref.Terminal {
			m["terminal"] = true
		}
		if e.ref.Repeatable {
			m["repeatable"] = true
		}
		if e.ref.Alias != "" {
			m["alias"] = e.ref.Alias
		}
	}
	switch e.kind {
	case KindInput:
		m["text"] = e.text
		m["valid"] = e.valid
	case KindSelection:
		alts := make([]any, len(e.alternatives))
		for i, a := range e.alternatives {
			alts[i] = a.Label()
		}
		m["alternatives"] = alts
	case KindGroup:
		children := make([]any, len(e.children))
		for i, c := range e.children {
			children[i] = ToMap(c)
		}
		m["children"] = children
	}
	if e.generatedBy != nil {
		m["generated_by"] = e.generatedBy.id
	}
	return m
}

// ToProto converts e to a protobuf Struct for the gRPC and JSON surfaces.
func ToProto(e *Element) (*structpb.Struct, error) {
	return structpb.NewStruct(ToMap(e))
}

// MarshalJSON renders e through protojson so the HTTP and gRPC surfaces
// agree on field names.
func MarshalJSON(e *Element) ([]byte, error) {
	s, err := ToProto(e)
	if err != nil {
		return nil, err
	}
	return protojson.MarshalOptions{Indent: "  "}.Marshal(s)
}
