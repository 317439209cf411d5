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


// Package circuitkg turns a structured circuit textbook into a multi-level
// knowledge graph by scheduling many extraction calls against an LLM
// service and fusing their partial results into one deduplicated graph.
package circuitkg

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"github.com/poiesic/circuitkg/ai"
	"github.com/poiesic/circuitkg/ai/openai"
	"github.com/poiesic/circuitkg/builder"
	"github.com/poiesic/circuitkg/core"
	"github.com/poiesic/circuitkg/fusion"
	"github.com/poiesic/circuitkg/pipeline"
	"github.com/poiesic/circuitkg/storage"
	badgercache "github.com/poiesic/circuitkg/storage/badger"
)

// Pipeline wires the stage builders, the worker-pool scheduler, the stage
// store, and the fusion engine into one runnable extraction pipeline.
type Pipeline struct {
	service   ai.ExtractionService
	store     *storage.FileStore
	scheduler *pipeline.Scheduler
	main      *builder.MainLogicBuilder
	sub       *builder.SubLogicBuilder
	conn      *builder.ConnectionBuilder
	fuser     *fusion.Fuser
	cache     *badgercache.Cache
	logger    *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	aiConfig    *ai.Config
	service     ai.ExtractionService
	workers     int
	maxAttempts int
	retryDelay  time.Duration
	threshold   float64
	maxPairs    int
	cachePath   string
	intraLinks  bool
	minSection  int
	nodeCeiling *ai.NodeBudget
}

// WithAIConfig sets the extraction service configuration.
func WithAIConfig(config *ai.Config) PipelineOption {
	return func(o *pipelineOptions) { o.aiConfig = config }
}

// WithService injects an extraction service directly, bypassing the OpenAI
// client. Used by tests and by callers with their own transport.
func WithService(service ai.ExtractionService) PipelineOption {
	return func(o *pipelineOptions) { o.service = service }
}

// WithWorkers sets the pool size, 1 to 32.
// Default is half the CPU count, at least 1.
func WithWorkers(workers int) PipelineOption {
	return func(o *pipelineOptions) { o.workers = workers }
}

// WithMaxAttempts sets the total attempt budget per unit, the first try
// included. Default is 3.
func WithMaxAttempts(attempts int) PipelineOption {
	return func(o *pipelineOptions) { o.maxAttempts = attempts }
}

// WithRetryDelay sets the backoff base delay. Default is one second.
func WithRetryDelay(delay time.Duration) PipelineOption {
	return func(o *pipelineOptions) { o.retryDelay = delay }
}

// WithThreshold sets the connection similarity threshold. Default is 0.3.
func WithThreshold(threshold float64) PipelineOption {
	return func(o *pipelineOptions) { o.threshold = threshold }
}

// WithMaxPairs caps the connection stage's pair count. Default is 1000.
func WithMaxPairs(n int) PipelineOption {
	return func(o *pipelineOptions) { o.maxPairs = n }
}

// WithResponseCache enables the BadgerDB response cache at the given path,
// letting a re-run skip units whose prompts are unchanged.
func WithResponseCache(path string) PipelineOption {
	return func(o *pipelineOptions) { o.cachePath = path }
}

// WithIntraLayerLinks enables synthesized intra-section layer edges during
// fusion. Off by default.
func WithIntraLayerLinks() PipelineOption {
	return func(o *pipelineOptions) { o.intraLinks = true }
}

// WithMinSectionLength sets the sub-logic section length floor.
func WithMinSectionLength(n int) PipelineOption {
	return func(o *pipelineOptions) { o.minSection = n }
}

// NewPipeline creates a pipeline writing its stage files under outDir.
func NewPipeline(outDir string, opts ...PipelineOption) (*Pipeline, error) {
	options := &pipelineOptions{
		aiConfig:    ai.DefaultConfig(),
		workers:     defaultWorkers(),
		maxAttempts: 3,
		retryDelay:  time.Second,
		threshold:   0,
		maxPairs:    0,
		minSection:  -1,
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := storage.NewFileStore(outDir)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:  store,
		logger: slog.Default().With("component", "pipeline"),
	}

	if options.cachePath != "" {
		cache, err := badgercache.OpenCache(options.cachePath, false)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}

	p.service = options.service
	if p.service == nil {
		var extractorOpts []openai.Option
		if p.cache != nil {
			extractorOpts = append(extractorOpts, openai.WithCache(p.cache))
		}
		extractor, err := openai.NewExtractor(options.aiConfig, extractorOpts...)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.service = extractor
	}

	backoff, err := pipeline.NewExponentialBackoff(options.retryDelay)
	if err != nil {
		p.Close()
		return nil, err
	}
	retry, err := pipeline.NewRetryController(options.maxAttempts, backoff)
	if err != nil {
		p.Close()
		return nil, err
	}
	scheduler, err := pipeline.NewScheduler(options.workers, pipeline.WithRetry(retry))
	if err != nil {
		p.Close()
		return nil, err
	}
	p.scheduler = scheduler

	if p.main, err = builder.NewMainLogicBuilder(p.service); err != nil {
		p.Close()
		return nil, err
	}
	var subOpts []builder.SubLogicOption
	if options.minSection >= 0 {
		subOpts = append(subOpts, builder.WithMinSectionLength(options.minSection))
	}
	if options.nodeCeiling != nil {
		subOpts = append(subOpts, builder.WithNodeCeiling(*options.nodeCeiling))
	}
	if p.sub, err = builder.NewSubLogicBuilder(p.service, subOpts...); err != nil {
		p.Close()
		return nil, err
	}
	var connOpts []builder.ConnectionOption
	if options.threshold > 0 {
		connOpts = append(connOpts, builder.WithThreshold(options.threshold))
	}
	if options.maxPairs > 0 {
		connOpts = append(connOpts, builder.WithMaxPairs(options.maxPairs))
	}
	if p.conn, err = builder.NewConnectionBuilder(p.service, connOpts...); err != nil {
		p.Close()
		return nil, err
	}

	var fuserOpts []fusion.Option
	if options.intraLinks {
		fuserOpts = append(fuserOpts, fusion.WithIntraLayerLinks())
	}
	p.fuser = fusion.NewFuser(fuserOpts...)

	return p, nil
}

func defaultWorkers() int {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}
	if workers > pipeline.MaxWorkers {
		workers = pipeline.MaxWorkers
	}
	return workers
}

// RunMainLogic runs the chapter-relation stage and persists its graph.
func (p *Pipeline) RunMainLogic(ctx context.Context, doc *core.Document) (*core.PartialGraph, *core.Report, error) {
	tasks := p.main.Tasks(doc)
	results, err := p.scheduler.RunStage(ctx, core.StageMainLogic, tasks)
	report := failureReport(results)
	if err != nil {
		return nil, report, err
	}

	graph := p.main.Assemble(doc, results)
	if err := p.store.SaveMainLogic(graph); err != nil {
		return nil, report, err
	}
	return graph, report, nil
}

// RunSubLogic runs the section-extraction stage, persisting one file per
// section plus the stage summary.
func (p *Pipeline) RunSubLogic(ctx context.Context, doc *core.Document) ([]*core.PartialGraph, *core.Report, error) {
	tasks, skipped := p.sub.Tasks(doc)
	results, err := p.scheduler.RunStage(ctx, core.StageSubLogic, tasks)
	report := failureReport(results)
	// A failed section's content is absent from the unified graph; the
	// report must say so, not just list the unit failure.
	for _, f := range report.UnitFailures {
		report.OmittedSections = append(report.OmittedSections, f.Section)
	}
	if err != nil {
		return nil, report, err
	}

	graphs := p.sub.Assemble(results)
	for _, graph := range graphs {
		if err := p.store.SaveSection(graph); err != nil {
			return nil, report, err
		}
	}
	if err := p.store.SaveSubLogicSummary(graphs, skipped); err != nil {
		return nil, report, err
	}
	return graphs, report, nil
}

// RunConnection runs the cross-section analysis stage against the persisted
// section graphs and persists the connection graph.
func (p *Pipeline) RunConnection(ctx context.Context) (*core.PartialGraph, *core.Report, error) {
	sections, err := p.store.LoadSections()
	if err != nil {
		return nil, nil, err
	}

	tasks := p.conn.Tasks(sections)
	results, err := p.scheduler.RunStage(ctx, core.StageConnection, tasks)
	report := failureReport(results)
	if err != nil {
		return nil, report, err
	}

	graph := p.conn.Assemble(results)
	if err := p.store.SaveConnections(graph); err != nil {
		return nil, report, err
	}
	return graph, report, nil
}

// RunFusion fuses the persisted stage outputs into the unified graph and
// persists it together with the fusion report.
func (p *Pipeline) RunFusion(title string) (*core.UnifiedGraph, *core.Report, error) {
	main, err := p.store.LoadMainLogic()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}
	sections, err := p.store.LoadSections()
	if err != nil {
		return nil, nil, err
	}
	connections, err := p.store.LoadConnections()
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, err
	}

	if title == "" && main != nil {
		title = main.Title
	}

	graph, report := p.fuser.Fuse(main, sections, connections, title)
	if err := p.store.SaveUnified(graph); err != nil {
		return nil, report, err
	}
	if err := p.store.SaveReport(report); err != nil {
		return nil, report, err
	}
	return graph, report, nil
}

// Run executes the full pipeline in stage order and returns the unified
// graph plus the combined failure report. A fatal service failure aborts
// the run; unit failures and integrity errors only shape the report.
func (p *Pipeline) Run(ctx context.Context, doc *core.Document) (*core.UnifiedGraph, *core.Report, error) {
	report := &core.Report{}

	_, mainReport, err := p.RunMainLogic(ctx, doc)
	report.Merge(mainReport)
	if err != nil {
		return nil, report, err
	}

	_, subReport, err := p.RunSubLogic(ctx, doc)
	report.Merge(subReport)
	if err != nil {
		return nil, report, err
	}

	_, connReport, err := p.RunConnection(ctx)
	report.Merge(connReport)
	if err != nil {
		return nil, report, err
	}

	graph, fusionReport, err := p.RunFusion(doc.Title)
	report.Merge(fusionReport)
	if err != nil {
		return nil, report, err
	}

	// The fusion step persisted only its own report; overwrite with the
	// full run's view.
	if err := p.store.SaveReport(report); err != nil {
		return graph, report, err
	}
	return graph, report, nil
}

// Close releases the scheduler pool and the response cache.
func (p *Pipeline) Close() error {
	if p.scheduler != nil {
		p.scheduler.Release()
	}
	if p.cache != nil {
		if err := p.cache.Close(); err != nil {
			p.logger.Error("error closing response cache", "err", err)
			return err
		}
	}
	return nil
}

// failureReport lists every unit that settled as failed.
func failureReport(results []pipeline.TaskResult) *core.Report {
	report := &core.Report{}
	for _, result := range results {
		if result.Err == nil {
			continue
		}
		report.UnitFailures = append(report.UnitFailures, core.UnitFailure{
			Stage:    result.Unit.Stage,
			Key:      result.Unit.Key,
			Section:  result.Unit.Section,
			Attempts: result.Attempts,
			Err:      result.Err.Error(),
		})
	}
	return report
}
