package core

import "strings"

// Chapter describes one top-level unit of the source document. The chapter
// list is produced by the external document splitter and consumed by the
// main-logic stage.
type Chapter struct {
	Num     string `json:"section_num"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Depth   int    `json:"level"`
}

// Section describes one section of the source document, produced by the
// external document splitter and consumed by the sub-logic stage.
type Section struct {
	Num     string `json:"section_num"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Depth   int    `json:"level"`
}

// Document is the splitter's output: the full ordered section list.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Chapters derives the chapter list from the document: sections whose number
// has no sub-part ("3" but not "3.2"). When the splitter emitted no
// top-level entries every section is treated as its own chapter.
func (d *Document) Chapters() []Chapter {
	var chapters []Chapter
	for _, s := range d.Sections {
		if strings.Contains(s.Num, ".") {
			continue
		}
		chapters = append(chapters, Chapter{
			Num:     s.Num,
			Title:   s.Title,
			Summary: summarize(s.Content, 800),
			Depth:   depthOf(s.Num),
		})
	}
	if len(chapters) == 0 {
		for _, s := range d.Sections {
			chapters = append(chapters, Chapter{
				Num:     s.Num,
				Title:   s.Title,
				Summary: summarize(s.Content, 800),
				Depth:   depthOf(s.Num),
			})
		}
	}
	return chapters
}

// ChapterNumFor returns the chapter number owning the given section number:
// the part before the first dot. "3.2.1" belongs to chapter "3".
func ChapterNumFor(sectionNum string) string {
	if i := strings.IndexByte(sectionNum, '.'); i >= 0 {
		return sectionNum[:i]
	}
	return sectionNum
}

func depthOf(num string) int {
	return strings.Count(num, ".") + 1
}

// summarize truncates content to at most limit runes.
func summarize(content string, limit int) string {
	content = strings.TrimSpace(content)
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
