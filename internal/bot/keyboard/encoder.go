package keyboard

import (
	"errors"
	"fmt"
	"strings"
)

// Button payloads are "{mode}" or "{mode}_{arg}". Modes and coin tickers never
// contain an underscore, so splitting on the first one recovers both parts.
const (
	PayloadSeparator       = "_"
	CallbackDataLimitBytes = 64
)

// EncodePayload joins mode and arg into callback data.
func EncodePayload(mode, arg string) (string, error) {
	if mode == "" {
		return "", errors.New("payload mode is empty")
	}
	if strings.Contains(mode, PayloadSeparator) {
		return "", fmt.Errorf("payload mode %q contains %q", mode, PayloadSeparator)
	}

	payload := mode
	if arg != "" {
		payload = mode + PayloadSeparator + arg
	}

	if len(payload) > CallbackDataLimitBytes {
		return "", fmt.Errorf("callback data exceeds %d byte limit: got %d", CallbackDataLimitBytes, len(payload))
	}

	return payload, nil
}

// DecodePayload splits callback data on the first separator.
func DecodePayload(data string) (mode, arg string, err error) {
	if data == "" {
		return "", "", errors.New("callback data is empty")
	}

	mode, arg, _ = strings.Cut(data, PayloadSeparator)
	if mode == "" {
		return "", "", fmt.Errorf("callback data %q has no mode", data)
	}

	return mode, arg, nil
}
