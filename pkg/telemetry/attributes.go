// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// ParseResourceAttributes parses a comma-separated list of key=value pairs,
// the OTEL_RESOURCE_ATTRIBUTES format, into string attributes sorted by key.
// Values may be percent-encoded. A repeated key keeps its last value.
// Example input: "deployment.environment=dev,team=platform"
func ParseResourceAttributes(input string) ([]attribute.KeyValue, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}

	values := make(map[string]string)
	for _, pair := range strings.Split(input, ",") {
		trimmedPair := strings.TrimSpace(pair)
		if trimmedPair == "" {
			continue
		}

		key, value, ok := strings.Cut(trimmedPair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute format '%s': expected key=value", trimmedPair)
		}

		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("empty attribute key in '%s'", trimmedPair)
		}

		decoded, err := url.PathUnescape(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid attribute value for '%s': %w", key, err)
		}
		values[key] = decoded
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, values[k]))
	}
	return attrs, nil
}
