// Package modelrouter resolves which chat model a given research-engine
// task should use, and at what temperature, from the engine's
// configuration. It holds no inference logic; it only picks a Model out of
// a registry the caller supplied.
package modelrouter

import (
	"context"

	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/errs"
)

// Task names every point in the pipeline that calls a chat model.
type Task string

const (
	TaskQueryGeneration Task = "query_generation"
	TaskPlanning        Task = "planning"
	TaskResearch        Task = "research"
	TaskSummarization   Task = "summarization"
	TaskWriting         Task = "writing"
	TaskEvaluation      Task = "evaluation"
	TaskCritique        Task = "critique"
	TaskGapAnalysis     Task = "gap_analysis"
)

// defaultTemperature gives each task the temperature its prompt style
// wants: near-zero for structured/analytical tasks, warmer for prose.
var defaultTemperature = map[Task]float64{
	TaskQueryGeneration: 0.3,
	TaskPlanning:        0.2,
	TaskResearch:        0.2,
	TaskSummarization:   0.3,
	TaskWriting:         0.5,
	TaskEvaluation:      0.0,
	TaskCritique:        0.1,
	TaskGapAnalysis:     0.0,
}

// Router resolves a Task to a registered chatmodel.Model using the
// configured per-task model name, falling back through
// reasoning-model/primary-model precedence when a task has no specific
// override.
type Router struct {
	cfg    config.Config
	models map[string]chatmodel.Model
}

// New builds a Router over cfg's model-routing fields and the given model
// registry, keyed by model name as each adapter reports via Name()/its
// configured identifier.
func New(cfg config.Config, models map[string]chatmodel.Model) *Router {
	return &Router{cfg: cfg, models: models}
}

// modelNameFor applies the configuration's task->name mapping, falling
// back to the primary model when no task-specific override is set.
func (r *Router) modelNameFor(task Task) string {
	switch task {
	case TaskPlanning:
		if r.cfg.PlannerModel != "" {
			return r.cfg.PlannerModel
		}
	case TaskResearch:
		if r.cfg.ResearcherModel != "" {
			return r.cfg.ResearcherModel
		}
	case TaskWriting, TaskSummarization:
		if r.cfg.WriterModel != "" {
			return r.cfg.WriterModel
		}
	case TaskEvaluation:
		if r.cfg.EvaluatorModel != "" {
			return r.cfg.EvaluatorModel
		}
	case TaskCritique:
		if r.cfg.CriticModel != "" {
			return r.cfg.CriticModel
		}
	case TaskGapAnalysis, TaskQueryGeneration:
		if r.cfg.ReasoningModel != "" {
			return r.cfg.ReasoningModel
		}
	}
	if r.cfg.PrimaryModel != "" {
		return r.cfg.PrimaryModel
	}
	return ""
}

// Resolve returns the Model registered for task, per the configured
// routing precedence: task-specific override, else reasoning/primary
// fallback as encoded in modelNameFor.
func (r *Router) Resolve(task Task) (chatmodel.Model, error) {
	name := r.modelNameFor(task)
	if name == "" {
		return nil, errs.New(errs.KindConfig, "no model configured for task %q", task)
	}
	m, ok := r.models[name]
	if !ok {
		return nil, errs.New(errs.KindConfig, "model %q not registered for task %q", name, task)
	}
	return m, nil
}

// Complete resolves task to a model and runs req against it, filling in
// req.Temperature from the task's default when the caller left it zero.
func (r *Router) Complete(ctx context.Context, task Task, req chatmodel.Request) (chatmodel.Response, error) {
	model, err := r.Resolve(task)
	if err != nil {
		return chatmodel.Response{}, err
	}
	if req.Temperature == 0 {
		req.Temperature = defaultTemperature[task]
	}
	resp, err := model.Complete(ctx, req)
	if err != nil {
		return chatmodel.Response{}, errs.Wrap(errs.KindModel, err, "model call failed for task %q", task)
	}
	return resp, nil
}
