package validation

import "encoding/json"

// Input is a text field of a request body. It tells a key that was left out
// apart from one sent as null.
type Input struct {
	Set   bool
	Value *string
}

// Text returns a supplied value.
func Text(s string) Input { return Input{Set: true, Value: &s} }

// NullText returns a key sent as JSON null.
func NullText() Input { return Input{Set: true} }

func (in *Input) UnmarshalJSON(data []byte) error {
	in.Set = true
	if string(data) == "null" {
		in.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	in.Value = &s
	return nil
}
