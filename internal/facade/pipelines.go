package facade

import (
	"fmt"

	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
)

// PipelinesStoreName is the well-known store pipeline definitions are kept
// under.
const PipelinesStoreName = "pipelines"

// pipelineState is the shape of a pipeline record's Value — a list of named
// stages in definition order plus a running error log, matching the fields
// original_source/hh/pipeline/models.py gives a pipeline run.
type pipelineState struct {
	Stages []string      `json:"stages"`
	Errors []pipelineErr `json:"errors"`
}

type pipelineErr struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Pipelines is the workflow-definition facade (component C10): each
// pipeline is one record in PipelinesStoreName, holding its ordered stage
// list and an append-only error log. Kept deliberately thin — it has no
// scheduling or execution semantics of its own, matching spec.md's scope
// line that domain facades' contracts with the engine stop at their use of
// its key/value primitives. Grounded on
// original_source/plugins/workflows.py and hh/pipeline/models.py.
type Pipelines struct {
	Engine *kvstore.Engine
}

// NewPipelines returns a Pipelines facade. The caller must have created
// PipelinesStoreName already.
func NewPipelines(eng *kvstore.Engine) *Pipelines {
	return &Pipelines{Engine: eng}
}

// Methods implements rpc.Service.
func (f *Pipelines) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"create_pipeline": f.createPipeline,
		"add_stage":       f.addStage,
		"log_error":       f.logError,
		"get_pipeline":    f.getPipeline,
		"list_pipelines":  f.listPipelines,
		"delete_pipeline": f.deletePipeline,
	}
}

func (f *Pipelines) createPipeline(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	stages := a.StringSlice(1, "stages")

	if _, ok := f.Engine.GetRecord(PipelinesStoreName, name); ok {
		return false, fmt.Errorf("facade: pipeline %q already exists", name)
	}

	state := pipelineState{Stages: append([]string{}, stages...)}
	ok, err := f.Engine.AddKey(PipelinesStoreName, name, stateToMap(state), nil, false, nil)
	return ok, err
}

func (f *Pipelines) addStage(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	stage, err := a.String(1, "stage")
	if err != nil {
		return nil, err
	}

	state, ok := f.loadState(name)
	if !ok {
		return nil, fmt.Errorf("facade: pipeline %q not found", name)
	}
	state.Stages = append(state.Stages, stage)

	var v interface{} = stateToMap(state)
	ok2, err := f.Engine.EditKey(PipelinesStoreName, name, kvstore.Patch{Value: &v}, true)
	return ok2, err
}

func (f *Pipelines) logError(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	stage, err := a.String(1, "stage")
	if err != nil {
		return nil, err
	}
	message, err := a.String(2, "message")
	if err != nil {
		return nil, err
	}

	state, ok := f.loadState(name)
	if !ok {
		return nil, fmt.Errorf("facade: pipeline %q not found", name)
	}
	state.Errors = append(state.Errors, pipelineErr{Stage: stage, Message: message})

	var v interface{} = stateToMap(state)
	ok2, err := f.Engine.EditKey(PipelinesStoreName, name, kvstore.Patch{Value: &v}, true)
	return ok2, err
}

func (f *Pipelines) getPipeline(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	state, ok := f.loadState(name)
	if !ok {
		return nil, fmt.Errorf("facade: pipeline %q not found", name)
	}
	return stateToMap(state), nil
}

func (f *Pipelines) listPipelines(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	all, _ := f.Engine.GetAllKeys(PipelinesStoreName)
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	return names, nil
}

func (f *Pipelines) deletePipeline(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	ok, err := f.Engine.DeleteKey(PipelinesStoreName, name)
	return ok, err
}

func (f *Pipelines) loadState(name string) (pipelineState, bool) {
	rec, ok := f.Engine.GetRecord(PipelinesStoreName, name)
	if !ok {
		return pipelineState{}, false
	}
	m, ok := rec.Value.(map[string]interface{})
	if !ok {
		return pipelineState{}, false
	}
	return mapToState(m), true
}

func stateToMap(s pipelineState) map[string]interface{} {
	errs := make([]interface{}, 0, len(s.Errors))
	for _, e := range s.Errors {
		errs = append(errs, map[string]interface{}{"stage": e.Stage, "message": e.Message})
	}
	stages := make([]interface{}, 0, len(s.Stages))
	for _, st := range s.Stages {
		stages = append(stages, st)
	}
	return map[string]interface{}{"stages": stages, "errors": errs}
}

func mapToState(m map[string]interface{}) pipelineState {
	var state pipelineState
	if raw, ok := m["stages"]; ok {
		state.Stages = asStringSlice(raw)
	}
	if raw, ok := m["errors"].([]interface{}); ok {
		for _, e := range raw {
			em, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			stage, _ := em["stage"].(string)
			msg, _ := em["message"].(string)
			state.Errors = append(state.Errors, pipelineErr{Stage: stage, Message: msg})
		}
	}
	return state
}

func asStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
