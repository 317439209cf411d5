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


package core

import "strings"

// Namespace separator between the owning section/chapter identifier and the
// locally-unique node id.
const namespaceSep = "::"

// mainNamespace prefixes every main-logic chapter node id.
const mainNamespace = "main"

// SectionNodeID rewrites a locally-unique node id into a globally-unique one
// by prefixing it with its owning section number.
func SectionNodeID(sectionNum, localID string) string {
	return sectionNum + namespaceSep + localID
}

// ChapterNodeID returns the namespaced id of a main-logic chapter node.
func ChapterNodeID(chapterNum string) string {
	return mainNamespace + namespaceSep + chapterNum
}

// NamespaceOf returns the namespace portion of an id ("3.2" for "3.2::ca_1",
// "main" for "main::3") and true, or "" and false when the id carries no
// namespace.
func NamespaceOf(id string) (string, bool) {
	i := strings.Index(id, namespaceSep)
	if i < 0 {
		return "", false
	}
	return id[:i], true
}

// IsChapterID reports whether the id belongs to the main-logic namespace.
func IsChapterID(id string) bool {
	ns, ok := NamespaceOf(id)
	return ok && ns == mainNamespace
}
