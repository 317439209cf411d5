// Package openai implements the extraction-service boundary against any
// OpenAI-compatible chat API (Ollama, vLLM, hosted endpoints).
//
// The Extractor builds per-stage prompts, sends them through langchaingo,
// parses the responses into the fixed per-stage schemas and classifies
// failures into the ai error taxonomy. An optional response cache keyed by
// prompt hash lets a re-run skip already-completed calls.
package openai
