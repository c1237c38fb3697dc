package commerceapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// listBody accepts either a plain JSON array or a paginated {"results": [...]} object.
type listBody[T any] struct {
	Items []T
}

func (l *listBody[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		l.Items = nil
		return nil
	}
	switch trimmed[0] {
	case '[':
		return json.Unmarshal(trimmed, &l.Items)
	case '{':
		var page struct {
			Results []T `json:"results"`
		}
		if err := json.Unmarshal(trimmed, &page); err != nil {
			return err
		}
		l.Items = page.Results
		return nil
	default:
		return fmt.Errorf("unexpected list payload starting with %q", trimmed[0])
	}
}
