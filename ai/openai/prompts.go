package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
)

const chapterResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "related": {"type": "boolean"},
    "prerequisite": {"type": "string"},
    "dependent": {"type": "string"},
    "relationship": {"type": "string"},
    "description": {"type": "string"},
    "weight": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["related"],
  "additionalProperties": false
}`

const chapterSystemPrompt = `You are an expert in analog and digital circuit design who analyzes the
pedagogical structure of circuit textbooks. You decide whether one chapter is
a prerequisite for another and you answer with JSON only.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

` + chapterResponseSchema + `

Rules:
- Set "related" to true only when understanding one chapter genuinely requires material from the other.
- "prerequisite" and "dependent" must be the chapter numbers exactly as given in the prompt.
- "relationship" is a short snake_case label such as "depends_on" or "builds_on".
- "weight" expresses how strong the dependency is, from 0.0 (none) to 1.0 (essential).
- If the chapters are unrelated, return {"related": false} and nothing else.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const chapterPairPromptTemplate = `Analyze whether one of these two textbook chapters is a prerequisite for the other.

Chapter %s: %s
Summary: %s

Chapter %s: %s
Summary: %s`

// chapterPairPrompt builds the main-logic prompt for one chapter pair.
func chapterPairPrompt(a, b core.Chapter) string {
	return fmt.Sprintf(chapterPairPromptTemplate,
		a.Num, a.Title, a.Summary,
		b.Num, b.Title, b.Summary)
}

const sectionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "basic_concepts": {"type": "array", "items": {"$ref": "#/definitions/node"}},
    "core_technologies": {"type": "array", "items": {"$ref": "#/definitions/node"}},
    "circuit_applications": {"type": "array", "items": {"$ref": "#/definitions/node"}},
    "relationships": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "source_id": {"type": "string"},
          "target_id": {"type": "string"},
          "relationship": {"type": "string"},
          "description": {"type": "string"},
          "evidence": {"type": "string"},
          "weight": {"type": "number", "minimum": 0, "maximum": 1}
        },
        "required": ["source_id", "target_id", "relationship"],
        "additionalProperties": false
      }
    }
  },
  "required": ["basic_concepts", "core_technologies", "circuit_applications"],
  "additionalProperties": false,
  "definitions": {
    "node": {
      "type": "object",
      "properties": {
        "id": {"type": "string"},
        "label": {"type": "string"},
        "summary": {"type": "string"},
        "keywords": {"type": "array", "items": {"type": "string"}}
      },
      "required": ["id", "label"],
      "additionalProperties": false
    }
  }
}`

const sectionSystemPrompt = `You are an expert in circuit engineering who extracts knowledge-graph fragments
from textbook sections. You identify three layers of knowledge and the relations
between them, and you answer with JSON only.

The three layers are:
- basic_concepts: fundamental physical quantities, laws, and device principles.
- core_technologies: analysis methods, design techniques, and circuit topologies.
- circuit_applications: complete circuits that apply the technologies to a purpose.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

` + sectionResponseSchema + `

Rules:
- Node ids must be short snake_case identifiers, unique within this response.
- Every relationship endpoint must be an id defined in one of the three node arrays.
- Relations run upward: concepts support technologies, technologies enable applications.
- "evidence" quotes or closely paraphrases the sentence in the section that supports the relation.
- "weight" expresses how central the relation is, from 0.0 to 1.0.
- Include only knowledge that the section actually presents. Do not hallucinate.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const sectionPromptTemplate = `Extract the knowledge graph of this textbook section. Identify at most %d basic
concepts, %d core technologies, and %d circuit applications, keeping the most
important of each layer.

Section %s: %s

%s`

// sectionPrompt builds the sub-logic prompt for one section.
func sectionPrompt(section core.Section, budget ai.NodeBudget) string {
	return fmt.Sprintf(sectionPromptTemplate,
		budget.BasicConcepts, budget.CoreTechnologies, budget.CircuitApplications,
		section.Num, section.Title, section.Content)
}

const connectionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "has_connection": {"type": "boolean"},
    "connection_type": {"type": "string"},
    "description": {"type": "string"},
    "technical_evidence": {"type": "string"}
  },
  "required": ["has_connection"],
  "additionalProperties": false
}`

const connectionSystemPrompt = `You are an expert in circuit engineering who judges whether two circuit
applications from different parts of a textbook are technically connected. You
answer with JSON only.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble,
explanation, greeting, or acknowledgment. Start your response directly with the opening brace { and
end with the closing brace }. Your output must exactly follow this schema:

` + connectionResponseSchema + `

Rules:
- Set "has_connection" to true only for a real technical link: shared topology, one circuit used as a building block of the other, or the same design technique applied.
- "connection_type" is a short snake_case label such as "shared_topology" or "building_block".
- "technical_evidence" names the concrete components, signals, or techniques the circuits share.
- Superficial similarity of names is not a connection.
- If there is no connection, return {"has_connection": false} and nothing else.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const connectionPromptTemplate = `Judge whether these two circuit applications are technically connected.

Application A: %s
Summary: %s
Keywords: %s

Application B: %s
Summary: %s
Keywords: %s`

// connectionPrompt builds the connection-analysis prompt for one application pair.
func connectionPrompt(a, b core.Node) string {
	return fmt.Sprintf(connectionPromptTemplate,
		a.Label, a.Summary, strings.Join(a.Keywords, ", "),
		b.Label, b.Summary, strings.Join(b.Keywords, ", "))
}
