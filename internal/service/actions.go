package service

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dori/tasknest/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed bulk.schema.json
var bulkSchemaJSON []byte

var (
	bulkSchemaOnce sync.Once
	bulkSchema     *jsonschema.Schema
	bulkSchemaErr  error
)

func compiledBulkSchema() (*jsonschema.Schema, error) {
	bulkSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource("bulk.schema.json", bytes.NewReader(bulkSchemaJSON)); err != nil {
			bulkSchemaErr = fmt.Errorf("load bulk schema: %w", err)
			return
		}
		bulkSchema, bulkSchemaErr = compiler.Compile("bulk.schema.json")
	})
	return bulkSchema, bulkSchemaErr
}

// ValidationError describes a bulk document that does not match the schema
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

// rawAction is the wire form {"op": ..., "id": ..., "data": ...}
type rawAction struct {
	Op        string                  `json:"op"`
	ID        string                  `json:"id"`
	Data      json.RawMessage         `json:"data"`
	Update    json.RawMessage         `json:"update"`
	ProjectID model.Optional[*string] `json:"projectId"`
	ParentID  model.Optional[*string] `json:"parentId"`
	Order     model.Optional[int]     `json:"order"`
}

// DecodeActions validates a bulk document of the form {"actions": [...]}
// against the bulk schema and decodes it into actions.
func DecodeActions(data []byte) ([]Action, error) {
	schema, err := compiledBulkSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bulk document: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, schemaError(err)
	}

	var wire struct {
		Actions []rawAction `json:"actions"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode bulk document: %w", err)
	}

	actions := make([]Action, 0, len(wire.Actions))
	for i, raw := range wire.Actions {
		a, err := raw.decode()
		if err != nil {
			return nil, &ValidationError{Path: fmt.Sprintf("actions[%d]", i), Message: err.Error()}
		}
		actions = append(actions, a)
	}
	return actions, nil
}

func (r rawAction) decode() (Action, error) {
	switch r.Op {
	case OpCreate:
		var in model.CreateTask
		if err := json.Unmarshal(r.Data, &in); err != nil {
			return nil, err
		}
		return CreateAction{Data: in}, nil
	case OpUpdate:
		body := r.Data
		if len(body) == 0 {
			body = r.Update
		}
		var in model.UpdateTask
		if len(body) > 0 {
			if err := json.Unmarshal(body, &in); err != nil {
				return nil, err
			}
		}
		return UpdateAction{ID: r.ID, Data: in}, nil
	case OpDelete:
		return DeleteAction{ID: r.ID}, nil
	case OpSoftDelete:
		return SoftDeleteAction{ID: r.ID}, nil
	case OpRestore:
		return RestoreAction{ID: r.ID}, nil
	case OpMove:
		return MoveAction{ID: r.ID, Move: model.MoveTask{ProjectID: r.ProjectID, ParentID: r.ParentID, Order: r.Order}}, nil
	case OpReorder:
		return ReorderAction{ID: r.ID, Order: r.Order.Value}, nil
	case OpArchive:
		return ArchiveAction{ID: r.ID}, nil
	case OpUnarchive:
		return UnarchiveAction{ID: r.ID}, nil
	case OpComplete:
		return CompleteAction{ID: r.ID}, nil
	case OpUncomplete:
		return UncompleteAction{ID: r.ID}, nil
	}
	return nil, fmt.Errorf("unknown op %q", r.Op)
}

// schemaError reduces a schema failure to its first leaf cause
func schemaError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return &ValidationError{Path: pointerToPath(ve.InstanceLocation), Message: ve.Message}
}

func pointerToPath(ptr string) string {
	var sb strings.Builder
	for _, part := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		if part == "" {
			continue
		}
		if part[0] >= '0' && part[0] <= '9' {
			sb.WriteString("[" + part + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}
