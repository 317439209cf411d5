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


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/circuitkg"
	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "circuitkg",
		Usage: "Build a multi-level knowledge graph from a circuit textbook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Run the full pipeline: main logic, sub logic, connections, fusion",
				Action: runCommand,
				Flags:  append(documentFlags(), pipelineFlags()...),
			},
			{
				Name:   "main-logic",
				Usage:  "Run only the chapter-relation stage",
				Action: stageCommand(runMainLogic),
				Flags:  append(documentFlags(), pipelineFlags()...),
			},
			{
				Name:   "sub-logic",
				Usage:  "Run only the section-extraction stage",
				Action: stageCommand(runSubLogic),
				Flags:  append(documentFlags(), pipelineFlags()...),
			},
			{
				Name:   "connection",
				Usage:  "Run only the cross-section analysis stage (needs persisted sections)",
				Action: stageCommand(runConnection),
				Flags:  pipelineFlags(),
			},
			{
				Name:   "fuse",
				Usage:  "Fuse persisted stage outputs into the unified graph",
				Action: stageCommand(runFusion),
				Flags: append(pipelineFlags(), &cli.StringFlag{
					Name:  "title",
					Usage: "Unified graph title (defaults to the main-logic title)",
				}),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func documentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "sections",
			Aliases:  []string{"s"},
			Usage:    "Path to the splitter's sections JSON file",
			Required: true,
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output directory for stage files and the unified graph",
			Value:   "output",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Usage:   "Worker pool size (1-32)",
			Value:   4,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "Extraction service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Extraction model name",
			Value: "qwen2.5:7b",
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "Extraction service API token",
			Value:   "none",
			EnvVars: []string{"CIRCUITKG_TOKEN"},
		},
		&cli.StringFlag{
			Name:  "cache",
			Usage: "Path to the response cache directory (disabled when empty)",
		},
		&cli.Float64Flag{
			Name:  "threshold",
			Usage: "Connection similarity threshold",
			Value: 0.3,
		},
		&cli.IntFlag{
			Name:  "max-pairs",
			Usage: "Cap on analyzed cross-section pairs",
			Value: 1000,
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Total attempt budget per unit, first try included",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: 1 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "intra-layer-links",
			Usage: "Synthesize keyword-similarity edges between section layers during fusion",
		},
	}
}

func runCommand(c *cli.Context) error {
	doc, err := loadDocument(c.String("sections"))
	if err != nil {
		return err
	}
	p, err := newPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	graph, report, err := p.Run(context.Background(), doc)
	if err != nil {
		return err
	}
	report.Write(os.Stderr)
	fmt.Fprintf(os.Stderr, "unified graph: %d nodes, %d edges\n", graph.TotalNodes, graph.TotalEdges)
	return nil
}

// stageCommand wraps a single-stage action with pipeline setup and report
// printing.
func stageCommand(stage func(*cli.Context, *circuitkg.Pipeline) (*core.Report, error)) cli.ActionFunc {
	return func(c *cli.Context) error {
		p, err := newPipeline(c)
		if err != nil {
			return err
		}
		defer p.Close()

		report, err := stage(c, p)
		if err != nil {
			return err
		}
		report.Write(os.Stderr)
		return nil
	}
}

func runMainLogic(c *cli.Context, p *circuitkg.Pipeline) (*core.Report, error) {
	doc, err := loadDocument(c.String("sections"))
	if err != nil {
		return nil, err
	}
	graph, report, err := p.RunMainLogic(context.Background(), doc)
	if err != nil {
		return report, err
	}
	fmt.Fprintf(os.Stderr, "main logic: %d chapters, %d relations\n", len(graph.Nodes), len(graph.Edges))
	return report, nil
}

func runSubLogic(c *cli.Context, p *circuitkg.Pipeline) (*core.Report, error) {
	doc, err := loadDocument(c.String("sections"))
	if err != nil {
		return nil, err
	}
	graphs, report, err := p.RunSubLogic(context.Background(), doc)
	if err != nil {
		return report, err
	}
	fmt.Fprintf(os.Stderr, "sub logic: %d sections extracted\n", len(graphs))
	return report, nil
}

func runConnection(c *cli.Context, p *circuitkg.Pipeline) (*core.Report, error) {
	graph, report, err := p.RunConnection(context.Background())
	if err != nil {
		return report, err
	}
	fmt.Fprintf(os.Stderr, "connections: %d cross-section edges\n", len(graph.Edges))
	return report, nil
}

func runFusion(c *cli.Context, p *circuitkg.Pipeline) (*core.Report, error) {
	graph, report, err := p.RunFusion(c.String("title"))
	if err != nil {
		return report, err
	}
	fmt.Fprintf(os.Stderr, "unified graph: %d nodes, %d edges\n", graph.TotalNodes, graph.TotalEdges)
	return report, nil
}

func newPipeline(c *cli.Context) (*circuitkg.Pipeline, error) {
	opts := []circuitkg.PipelineOption{
		circuitkg.WithAIConfig(ai.NewConfig(
			ai.WithHost(c.String("host")),
			ai.WithModel(c.String("model")),
			ai.WithToken(c.String("token")),
		)),
		circuitkg.WithWorkers(c.Int("workers")),
		circuitkg.WithMaxAttempts(c.Int("max-attempts")),
		circuitkg.WithRetryDelay(c.Duration("retry-delay")),
		circuitkg.WithThreshold(c.Float64("threshold")),
		circuitkg.WithMaxPairs(c.Int("max-pairs")),
	}
	if cache := c.String("cache"); cache != "" {
		opts = append(opts, circuitkg.WithResponseCache(cache))
	}
	if c.Bool("intra-layer-links") {
		opts = append(opts, circuitkg.WithIntraLayerLinks())
	}
	return circuitkg.NewPipeline(c.String("out"), opts...)
}

// loadDocument reads the splitter's sections JSON.
func loadDocument(path string) (*core.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sections file: %w", err)
	}
	var doc core.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse sections file: %w", err)
	}
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("sections file %s contains no sections", path)
	}
	return &doc, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
