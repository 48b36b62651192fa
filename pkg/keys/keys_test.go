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

package keys

import (
	"errors"
	"reflect"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	scenarios := []struct {
		name   string
		labels map[string]string
		sub    string
	}{
		{"requests_total", map[string]string{"method": "GET"}, "value"},
		{"requests_total", map[string]string{"method": "GET"}, "value:web-1:0"},
		{"queue_depth", nil, "value"},
		{"latency_seconds", map[string]string{"path": "/v1/users"}, "bucket:+Inf"},
		// Values containing the separator, quotes and control characters
		// must survive the trip.
		{"weird", map[string]string{"a": "x:y:z", "b": "he said \"no\"\n", "c": ""}, "sum"},
		{"unicode", map[string]string{"город": "Москва"}, "count"},
	}

	for _, s := range scenarios {
		key := Encode(s.name, s.labels, s.sub)
		name, labels, sub, err := Decode(key)
		if err != nil {
			t.Fatalf("Decode(%q): unexpected error %v", key, err)
		}
		if name != s.name {
			t.Fatalf("Decode(%q): got name %q, want %q", key, name, s.name)
		}
		if sub != s.sub {
			t.Fatalf("Decode(%q): got sub %q, want %q", key, sub, s.sub)
		}
		want := s.labels
		if want == nil {
			want = map[string]string{}
		}
		if !reflect.DeepEqual(labels, want) {
			t.Fatalf("Decode(%q): got labels %v, want %v", key, labels, want)
		}
	}
}

func TestEncodeCanonical(t *testing.T) {
	a := Encode("m", map[string]string{"x": "1", "y": "2"}, "value")
	b := Encode("m", map[string]string{"y": "2", "x": "1"}, "value")
	if a != b {
		t.Fatalf("equal label sets encoded differently: %q vs %q", a, b)
	}
}

func TestPrefixSelectsOnlyOwnMetric(t *testing.T) {
	key := Encode("foo_bar", map[string]string{}, "value")
	if got := Prefix("foo"); len(key) >= len(got) && key[:len(got)] == got {
		t.Fatalf("key %q for foo_bar must not match prefix %q of foo", key, got)
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, key := range []string{
		"",
		"garbage",
		"other:namespace:value:e30",
		"promredis:name only",
		"promredis:bad-name!:value:e30",
		"promredis:name:value:!!!not-base64!!!",
		"promredis:name:value:aGVsbG8", // base64 of "hello", not a JSON object
		"promredis:name:e30",           // missing sub-key
	} {
		_, _, _, err := Decode(key)
		if err == nil {
			t.Fatalf("Decode(%q): expected error, got none", key)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("Decode(%q): expected *DecodeError, got %T", key, err)
		}
	}
}

func TestValidMetricName(t *testing.T) {
	for name, want := range map[string]bool{
		"requests_total": true,
		"_hidden":        true,
		"r2d2":           true,
		"":               false,
		"9lives":         false,
		"with:colon":     false,
		"with-dash":      false,
	} {
		if got := ValidMetricName(name); got != want {
			t.Fatalf("ValidMetricName(%q) = %v, want %v", name, got, want)
		}
	}
}
