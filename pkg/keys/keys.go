// Copyright 2026 The PromRedis Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package keys maps (metric name, label set, sub-key) tuples to shared-store
// keys and back. The scheme is
//
//	promredis:<name>:<sub>:<base64url(JSON labels)>
//
// The JSON object is emitted with sorted keys, so equal label sets always
// produce the same key, and the base64 URL alphabet cannot contain the ':'
// separator, so label values may contain any byte and still round-trip.
//
// Changing this scheme orphans every sample already in the store; all
// processes of a deployment must encode identically.
package keys

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Namespace prefixes every key this package produces, keeping metric samples
// apart from whatever else lives in the store.
const Namespace = "promredis"

var metricNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DecodeError reports a shared-store key that was not produced by this
// package's scheme.
type DecodeError struct {
	Key    string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode key %q: %s", e.Key, e.Reason)
}

// ValidMetricName reports whether name can be used in a key. Colons are
// deliberately excluded even though Prometheus reserves them for recording
// rules; here they are the key separator.
func ValidMetricName(name string) bool {
	return metricNameRE.MatchString(name)
}

// Encode builds the shared-store key for one sample of a metric. The sub-key
// distinguishes the components of composite metrics ("sum", "count",
// "bucket:<le>") and may carry a shard discriminator. It must not be empty.
func Encode(name string, labels map[string]string, sub string) string {
	if labels == nil {
		labels = map[string]string{}
	}
	// Map keys are sorted by encoding/json, which makes this canonical.
	packed, err := json.Marshal(labels)
	if err != nil {
		// A map[string]string cannot fail to marshal.
		panic(fmt.Sprintf("keys: marshaling labels: %v", err))
	}
	return Namespace + ":" + name + ":" + sub + ":" + base64.RawURLEncoding.EncodeToString(packed)
}

// Prefix returns the scan prefix covering every sample of the named metric.
func Prefix(name string) string {
	return Namespace + ":" + name + ":"
}

// Decode recovers the metric name, label set and sub-key from a key produced
// by Encode. It returns a *DecodeError for any key that does not follow the
// scheme exactly.
func Decode(key string) (name string, labels map[string]string, sub string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] != Namespace {
		return "", nil, "", &DecodeError{Key: key, Reason: "missing namespace prefix"}
	}
	name = parts[1]
	if !ValidMetricName(name) {
		return "", nil, "", &DecodeError{Key: key, Reason: "invalid metric name"}
	}
	rest := parts[2]
	// The label payload is the last segment; the base64 URL alphabet has no
	// ':', so the sub-key owns everything before the final separator.
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return "", nil, "", &DecodeError{Key: key, Reason: "missing sub-key or label segment"}
	}
	sub = rest[:i]
	packed, derr := base64.RawURLEncoding.DecodeString(rest[i+1:])
	if derr != nil {
		return "", nil, "", &DecodeError{Key: key, Reason: "label segment is not base64"}
	}
	labels = map[string]string{}
	if jerr := json.Unmarshal(packed, &labels); jerr != nil {
		return "", nil, "", &DecodeError{Key: key, Reason: "label segment is not a JSON object"}
	}
	return name, labels, sub, nil
}
