package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// AnswerKind discriminates the shapes answer data may take on the wire
// and at rest: a single choice label, a list of labels, or an upload
// descriptor for image answers.
type AnswerKind string

const (
	AnswerKindNone   AnswerKind = ""
	AnswerKindScalar AnswerKind = "scalar"
	AnswerKindList   AnswerKind = "list"
	AnswerKindUpload AnswerKind = "upload"
)

// UploadDescriptor references a file a student attached to an answer.
// Storage of the file itself is outside this service; the descriptor is
// carried as opaque data and shown to evaluators.
type UploadDescriptor struct {
	Name     string `json:"name,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Text     string `json:"text,omitempty"`
}

// AnswerValue is the tagged union behind question correct_answers and
// student answer_data. At rest it is a JSON blob; it is parsed into the
// union on load and interpreted against the question type only at
// grading or display time.
type AnswerValue struct {
	Kind   AnswerKind
	Scalar string
	List   []string
	Upload *UploadDescriptor
}

func ScalarAnswer(v string) AnswerValue { return AnswerValue{Kind: AnswerKindScalar, Scalar: v} }

func ListAnswer(vs ...string) AnswerValue {
	return AnswerValue{Kind: AnswerKindList, List: vs}
}

func (v AnswerValue) IsZero() bool { return v.Kind == AnswerKindNone }

// Normalized renders the value as a sorted list of strings, the
// canonical form compared during grading. Scalars wrap into a
// one-element list; uploads and absent values normalize to nil and can
// therefore never match a choice key.
func (v AnswerValue) Normalized() []string {
	switch v.Kind {
	case AnswerKindScalar:
		return []string{v.Scalar}
	case AnswerKindList:
		out := make([]string, len(v.List))
		copy(out, v.List)
		sort.Strings(out)
		return out
	default:
		return nil
	}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case AnswerKindScalar:
		return json.Marshal(v.Scalar)
	case AnswerKindList:
		if v.List == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(v.List)
	case AnswerKindUpload:
		return json.Marshal(v.Upload)
	default:
		return []byte("null"), nil
	}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AnswerValue{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = AnswerValue{Kind: AnswerKindScalar, Scalar: s}
		return nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		list := make([]string, 0, len(raw))
		for _, elem := range raw {
			s, err := stringifyScalar(elem)
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		*v = AnswerValue{Kind: AnswerKindList, List: list}
		return nil
	case '{':
		var upload UploadDescriptor
		if err := json.Unmarshal(data, &upload); err != nil {
			return err
		}
		*v = AnswerValue{Kind: AnswerKindUpload, Upload: &upload}
		return nil
	default:
		// Bare numbers and booleans are accepted and treated as scalars,
		// matching how loosely-typed clients submit choice labels.
		s, err := stringifyScalar(data)
		if err != nil {
			return err
		}
		*v = AnswerValue{Kind: AnswerKindScalar, Scalar: s}
		return nil
	}
}

func stringifyScalar(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", fmt.Errorf("empty JSON value")
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", err
	}
	switch val := probe.(type) {
	case bool:
		if val {
			return "true", nil
		}
		return "false", nil
	case float64:
		// Render integers without a trailing ".0" so "4" == 4.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val)), nil
		}
		return fmt.Sprintf("%g", val), nil
	default:
		return "", fmt.Errorf("unsupported scalar element %s", string(raw))
	}
}

// Value implements driver.Valuer so the union persists as a JSON blob.
func (v AnswerValue) Value() (driver.Value, error) {
	if v.Kind == AnswerKindNone {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner, parsing the stored blob back into the union.
func (v *AnswerValue) Scan(src any) error {
	if src == nil {
		*v = AnswerValue{}
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return v.UnmarshalJSON(data)
	case string:
		return v.UnmarshalJSON([]byte(data))
	default:
		return fmt.Errorf("unsupported answer value source type %T", src)
	}
}

// StringList stores an ordered list of strings (options, tags) as JSON.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	switch data := src.(type) {
	case []byte:
		return json.Unmarshal(data, (*[]string)(l))
	case string:
		return json.Unmarshal([]byte(data), (*[]string)(l))
	default:
		return fmt.Errorf("unsupported string list source type %T", src)
	}
}
