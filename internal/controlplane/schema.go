package controlplane

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/Chorus/internal/dag"
	"github.com/shaiso/Chorus/internal/domain"
	"github.com/shaiso/Chorus/internal/store"
)

// SchemaVersion — текущая версия схемы документов.
const SchemaVersion = "1"

// Seeder создаёт документы workflow в store.
type Seeder struct {
	store  store.Client
	logger *slog.Logger
}

// NewSeeder создаёт новый Seeder.
func NewSeeder(st store.Client, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: st, logger: logger}
}

// CreateRequest — запрос на создание workflow.
type CreateRequest struct {
	// WorkflowID — идентификатор workflow.
	WorkflowID string

	// Definition — определение конечного автомата.
	// Ровно одно из Definition и Steps должно быть задано.
	Definition *dag.Definition

	// Steps — плоский список шагов (линейная цепочка).
	Steps []string

	// Agents — назначение state → идентификатор воркера. Опционально.
	Agents map[string]string
}

// Create идемпотентно создаёт meta-документ и документы states.
//
// Все записи идут через create-if-absent: повторный вызов с тем же
// определением — no-op, уже существующие ключи попадают в Existing.
// "Уже существует" — это успех, а не ошибка: при хореографии несколько
// воркеров могут одновременно bootstrap'ить один workflow.
func (s *Seeder) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	graph, name, err := s.buildGraph(req)
	if err != nil {
		return nil, err
	}

	meta := &domain.Meta{
		WorkflowID:     req.WorkflowID,
		WorkflowName:   name,
		SchemaVersion:  SchemaVersion,
		CreatedAt:      domain.Now(),
		StartAt:        graph.StartAt,
		TerminalStates: graph.Terminal,
		States:         graph.States,
		Agents:         req.Agents,
		Deps:           graph.Deps,
	}

	result := &CreateResult{Meta: meta}

	metaKey := MetaKey(req.WorkflowID)
	created, err := s.store.SetJSONNX(ctx, metaKey, meta)
	if err != nil {
		return result, err
	}
	if created {
		result.Created = append(result.Created, metaKey)
	} else {
		result.Existing = append(result.Existing, metaKey)
		// Meta уже есть: возвращаем то, что лежит в store,
		// а не только что построенный документ.
		var existing domain.Meta
		if ok, err := s.store.GetJSON(ctx, metaKey, &existing); err == nil && ok {
			result.Meta = &existing
		}
	}

	for _, state := range graph.States {
		key := StateKey(req.WorkflowID, state)
		created, err := s.store.SetJSONNX(ctx, key, domain.NewStateDoc())
		if err != nil {
			return result, err
		}
		if created {
			result.Created = append(result.Created, key)
		} else {
			result.Existing = append(result.Existing, key)
		}
	}

	s.logger.Info("workflow seeded",
		"workflow_id", req.WorkflowID,
		"states", len(graph.States),
		"created", len(result.Created),
		"existing", len(result.Existing),
	)

	return result, nil
}

// buildGraph выводит граф из запроса.
func (s *Seeder) buildGraph(req CreateRequest) (*dag.Graph, string, error) {
	if req.WorkflowID == "" {
		return nil, "", fmt.Errorf("workflow_id is required")
	}

	switch {
	case req.Definition != nil:
		graph, err := dag.Build(req.Definition)
		if err != nil {
			return nil, "", err
		}
		return graph, req.Definition.Name, nil

	case len(req.Steps) > 0:
		graph, err := dag.BuildLinear(req.WorkflowID, req.Steps)
		if err != nil {
			return nil, "", err
		}
		return graph, req.WorkflowID, nil

	default:
		return nil, "", dag.NewDefinitionError("", "definition or steps required", dag.ErrEmptyStates)
	}
}
