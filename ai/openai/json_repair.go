// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package openai

import "strings"

// repairJSON fixes a malformation small models produce regularly: an object
// key missing its opening quote, e.g. `{category": "tool"}`. Keys are only
// rewritten when the closing quote and colon are present, so valid JSON
// passes through unchanged.
func repairJSON(s string) string {
	runes := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 16)

	for i := 0; i < len(runes); {
		ch := runes[i]
		out.WriteRune(ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			out.WriteRune(runes[i])
			i++
		}
		if i >= len(runes) || runes[i] == '"' || !isLetter(runes[i]) {
			continue
		}

		// Candidate unquoted key: a run of letters, underscores and spaces.
		start := i
		for i < len(runes) && (isLetter(runes[i]) || runes[i] == '_' || runes[i] == ' ') {
			i++
		}

		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			out.WriteRune('"')
			for j := start; j < i; j++ {
				// Trim padding inside the repaired key without touching
				// interior spaces.
				if runes[j] == ' ' && (j == start || j == i-1) {
					continue
				}
				out.WriteRune(runes[j])
			}
			// The closing quote at runes[i] is copied on the next pass.
		} else {
			out.WriteString(string(runes[start:i]))
		}
	}

	return out.String()
}
