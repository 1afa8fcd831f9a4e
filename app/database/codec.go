package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is stored as a JSON array in a TEXT column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(data), nil
}

func (l *StringList) Scan(src any) error {
	data, err := jsonColumn(src)
	if err != nil {
		return err
	}

	list := []string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to decode string list: %w", err)
		}
	}
	*l = list
	return nil
}

type Theme struct {
	Theme              string   `json:"theme"`
	Description        string   `json:"description"`
	RelatedNewsletters []string `json:"relatedNewsletters"`
}

// ThemeList is stored as a JSON array in a TEXT column.
type ThemeList []Theme

func (l ThemeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]Theme(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode themes: %w", err)
	}
	return string(data), nil
}

func (l *ThemeList) Scan(src any) error {
	data, err := jsonColumn(src)
	if err != nil {
		return err
	}

	list := []Theme{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to decode themes: %w", err)
		}
	}
	for i := range list {
		if list[i].RelatedNewsletters == nil {
			list[i].RelatedNewsletters = []string{}
		}
	}
	*l = list
	return nil
}

func jsonColumn(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
