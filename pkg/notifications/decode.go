package notifications

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DecodeList decodes a JSON array of notifications, dropping items that fail
// to decode or validate. It returns the valid items and the number dropped.
// Only a payload that is not an array at all is an error.
func DecodeList(data []byte) ([]Notification, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Notification{}, 0, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, errors.Join(ErrDecodeList, err)
	}

	list := make([]Notification, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		n, err := Decode(item)
		if err != nil {
			dropped++
			continue
		}
		list = append(list, n)
	}
	return list, dropped, nil
}

// Decode decodes and validates a single notification.
func Decode(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrInvalidNotification, err)
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	return n, nil
}
