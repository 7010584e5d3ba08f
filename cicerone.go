package cicerone

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cicerone-chat/cicerone/internal/adapters/memory"
	"github.com/cicerone-chat/cicerone/internal/classify"
	"github.com/cicerone-chat/cicerone/internal/codec/editor"
	"github.com/cicerone-chat/cicerone/internal/codec/tabular"
	"github.com/cicerone-chat/cicerone/internal/compiler"
	"github.com/cicerone-chat/cicerone/internal/ingest"
	"github.com/cicerone-chat/cicerone/internal/logging"
	"github.com/cicerone-chat/cicerone/internal/runtime"
	"github.com/cicerone-chat/cicerone/pkg/domain"
	"github.com/cicerone-chat/cicerone/pkg/observability"
	"github.com/cicerone-chat/cicerone/pkg/ports"
	"github.com/cicerone-chat/cicerone/pkg/session"
)

// ImportResult reports what one import produced: the stored definition, its
// size, and every non-fatal compile issue.
type ImportResult struct {
	DefinitionID string         `json:"definition_id"`
	NodeCount    int            `json:"node_count"`
	Issues       []domain.Issue `json:"issues,omitempty"`
}

// Engine is the high-level entry point. It ties the codecs, the compiler and
// the traversal runtime to a definition store and the side-effect ports.
type Engine struct {
	store    ports.DefinitionStore
	gate     ports.SessionGate
	notifier ports.Notifier
	metrics  *observability.Metrics
	logger   *slog.Logger

	cyclePolicy     compiler.CyclePolicy
	depthPolicy     tabular.DepthPolicy
	handoverKeyword string

	compiler *compiler.Compiler
	tabular  *tabular.Codec
	runtime  *runtime.Engine
	timers   *session.Timers
}

// Option configures the Engine.
type Option func(*Engine)

// WithStore sets the definition store. Defaults to an in-memory store.
func WithStore(store ports.DefinitionStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCyclePolicy controls how compilation treats back-edges.
func WithCyclePolicy(p compiler.CyclePolicy) Option {
	return func(e *Engine) { e.cyclePolicy = p }
}

// WithDepthPolicy controls how the tabular codec treats over-deep rows.
func WithDepthPolicy(p tabular.DepthPolicy) Option {
	return func(e *Engine) { e.depthPolicy = p }
}

// WithHandoverKeyword overrides the trigger text that flags a branch as an
// operator hand-off.
func WithHandoverKeyword(kw string) Option {
	return func(e *Engine) { e.handoverKeyword = kw }
}

// WithSessionGate sets the collaborator notified on operator hand-offs.
func WithSessionGate(g ports.SessionGate) Option {
	return func(e *Engine) { e.gate = g }
}

// WithNotifier sets the collaborator that delivers mail and CSV triggers.
func WithNotifier(n ports.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// New assembles an Engine. All collaborators have working defaults, so
// New() with no options yields a fully functional in-memory engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		gate:            ports.NopSessionGate{},
		notifier:        ports.NopNotifier{},
		logger:          logging.NewNop(),
		handoverKeyword: domain.DefaultHandoverKeyword,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = memory.New()
	}
	e.compiler = compiler.New(
		compiler.WithCyclePolicy(e.cyclePolicy),
		compiler.WithClassifier(classify.New(classify.WithHandoverKeyword(e.handoverKeyword), classify.WithLogger(e.logger))),
		compiler.WithLogger(e.logger),
	)
	e.tabular = tabular.New(tabular.WithDepthPolicy(e.depthPolicy))
	e.runtime = runtime.NewEngine(runtime.WithLogger(e.logger))
	e.timers = session.NewTimers(session.WithLogger(e.logger))
	return e
}

// Timers exposes the per-session timer registry so hosts can schedule
// auto-responses that Select cancels on new activity.
func (e *Engine) Timers() *session.Timers { return e.timers }

// ImportGraph compiles a graph-editor document and stores the result.
func (e *Engine) ImportGraph(ctx context.Context, name string, payload []byte) (*ImportResult, error) {
	started := time.Now()
	graph, err := ingest.Parse(payload)
	if err != nil {
		e.metrics.ObserveCompile(domain.SourceGraph, nil, err, time.Since(started))
		return nil, err
	}
	tree, issues, err := e.compiler.Compile(graph)
	e.metrics.ObserveCompile(domain.SourceGraph, issues, err, time.Since(started))
	if err != nil {
		return nil, err
	}
	return e.publish(ctx, name, domain.SourceGraph, payload, tree, issues)
}

// ImportTable compiles a level-per-column CSV payload and stores the result.
func (e *Engine) ImportTable(ctx context.Context, name string, payload []byte) (*ImportResult, error) {
	started := time.Now()
	tree, issues, err := e.tabular.Import(bytes.NewReader(payload))
	e.metrics.ObserveCompile(domain.SourceTable, issues, err, time.Since(started))
	if err != nil {
		return nil, err
	}
	return e.publish(ctx, name, domain.SourceTable, payload, tree, issues)
}

// ImportEditor recompiles an editor-format document and stores the result.
func (e *Engine) ImportEditor(ctx context.Context, name string, doc *editor.Document) (*ImportResult, error) {
	started := time.Now()
	tree, issues, err := editor.Recompile(doc)
	e.metrics.ObserveCompile(domain.SourceEditor, issues, err, time.Since(started))
	if err != nil {
		return nil, err
	}
	return e.publish(ctx, name, domain.SourceEditor, nil, tree, issues)
}

func (e *Engine) publish(ctx context.Context, name string, format domain.SourceFormat, payload []byte, tree *domain.Tree, issues []domain.Issue) (*ImportResult, error) {
	def := &domain.Definition{
		ID:         uuid.NewString(),
		Name:       name,
		Version:    1,
		Tree:       tree,
		CompiledAt: time.Now().UTC(),
	}
	if payload != nil {
		def.Source = &domain.Source{Format: format, Payload: payload}
	}
	if err := e.store.Save(ctx, def); err != nil {
		return nil, fmt.Errorf("store definition: %w", err)
	}
	e.logger.Info("definition published",
		"id", def.ID, "name", name, "format", format,
		"nodes", tree.Len(), "issues", len(issues))
	return &ImportResult{DefinitionID: def.ID, NodeCount: tree.Len(), Issues: issues}, nil
}

// ExportTable renders a stored definition back to the CSV authoring form.
func (e *Engine) ExportTable(ctx context.Context, id string) ([]byte, error) {
	def, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	issues, err := e.tabular.Export(def.Tree, &buf)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		e.logger.Warn("table export issue", "definition", id, "issue", issue.String())
	}
	return buf.Bytes(), nil
}

// ExportEditor renders a stored definition as the simplified editor document.
func (e *Engine) ExportEditor(ctx context.Context, id string) (*editor.Document, error) {
	def, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return editor.Decompile(def.Tree), nil
}

// Definitions lists the stored definition IDs.
func (e *Engine) Definitions(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Definition loads one stored definition.
func (e *Engine) Definition(ctx context.Context, id string) (*domain.Definition, error) {
	return e.store.Load(ctx, id)
}

// Delete removes a stored definition.
func (e *Engine) Delete(ctx context.Context, id string) error {
	return e.store.Delete(ctx, id)
}

// Select evaluates one user selection against a stored definition and fires
// whatever side-effects the reached node declares. New activity cancels the
// session's pending auto-response timers; a hand-off releases them for good
// and flips the session to awaiting-human through the SessionGate.
func (e *Engine) Select(ctx context.Context, definitionID, selection, sessionID string) (*runtime.Reply, error) {
	def, err := e.store.Load(ctx, definitionID)
	if err != nil {
		e.metrics.ObserveTraversal(err)
		return nil, err
	}
	sel, err := runtime.ParseSelection(selection)
	if err != nil {
		e.metrics.ObserveTraversal(err)
		return nil, err
	}
	reply, err := e.runtime.Traverse(ctx, def.Tree, sel)
	e.metrics.ObserveTraversal(err)
	if err != nil {
		return nil, err
	}

	if sessionID != "" {
		if reply.Handover {
			e.timers.Release(sessionID)
		} else {
			e.timers.Touch(sessionID)
		}
	}
	if reply.Handover && sessionID != "" {
		if err := e.gate.AwaitHuman(ctx, sessionID); err != nil {
			e.logger.Error("handover signal failed", "session", sessionID, "err", err)
		}
	}
	e.dispatch(ctx, definitionID, reply)
	return reply, nil
}

// dispatch fires mail/csv triggers. Failures are logged, never surfaced: the
// user-facing reply must not depend on notification delivery.
func (e *Engine) dispatch(ctx context.Context, definitionID string, reply *runtime.Reply) {
	switch reply.Action {
	case domain.ActionMail:
		if reply.Config.Mail == nil {
			return
		}
		if err := e.notifier.TriggerMail(ctx, definitionID, *reply.Config.Mail); err != nil {
			e.logger.Error("mail trigger failed", "definition", definitionID, "err", err)
		}
	case domain.ActionCSV:
		if reply.Config.CSV == nil {
			return
		}
		if err := e.notifier.TriggerCSV(ctx, definitionID, *reply.Config.CSV); err != nil {
			e.logger.Error("csv trigger failed", "definition", definitionID, "err", err)
		}
	}
}
