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


package ai

import (
	"encoding/json"
	"errors"
	"strings"
)

// CleanResponse normalizes a raw model response for JSON parsing: strips
// markdown code fences and trims everything outside the outermost braces.
func CleanResponse(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return text
}

// ParseChapterRelation parses a main-logic response. A response that fails
// to parse into the schema is a retryable malformed-response error.
func ParseChapterRelation(text string) (*ChapterRelation, error) {
	var rel ChapterRelation
	if err := parseInto(text, &rel); err != nil {
		return nil, err
	}
	if rel.Related && (rel.Prerequisite == "" || rel.Dependent == "") {
		return nil, Malformed(errors.New("related chapter pair missing prerequisite or dependent"))
	}
	return &rel, nil
}

// ParseSectionExtraction parses a sub-logic response.
func ParseSectionExtraction(text string) (*SectionExtraction, error) {
	var ex SectionExtraction
	if err := parseInto(text, &ex); err != nil {
		return nil, err
	}
	if len(ex.BasicConcepts)+len(ex.CoreTechnologies)+len(ex.CircuitApplications) == 0 {
		return nil, Malformed(errors.New("section extraction contains no nodes"))
	}
	return &ex, nil
}

// ParseConnectionEvidence parses a connection-analysis response.
func ParseConnectionEvidence(text string) (*ConnectionEvidence, error) {
	var ev ConnectionEvidence
	if err := parseInto(text, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func parseInto(text string, v any) error {
	if strings.TrimSpace(text) == "" {
		return Malformed(errors.New("empty response"))
	}
	cleaned := repairJSON(CleanResponse(text))
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return Malformed(err)
	}
	return nil
}

// repairJSON fixes a common model formatting defect: a missing opening quote
// before object keys (`, type":` instead of `, "type":`).
func repairJSON(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		// Skip whitespace after { or ,
		for i < len(in) && (in[i] == ' ' || in[i] == '\n' || in[i] == '\t') {
			out = append(out, in[i])
			i++
		}

		// An identifier here, followed by `":`, is a key missing its
		// opening quote.
		if i >= len(in) || in[i] == '"' || !isIdentRune(in[i]) {
			continue
		}
		start := i
		for i < len(in) && (isIdentRune(in[i]) || in[i] == ' ') {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
			out = append(out, in[start:i]...)
			continue
		}
		// Not a broken key; emit what was skipped.
		out = append(out, in[start:i]...)
	}

	return string(out)
}

func isIdentRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}
