package dag

import (
	"fmt"

	"github.com/shaiso/Chorus/internal/domain"
)

// Graph — выведенный граф workflow.
type Graph struct {
	// StartAt — стартовый state.
	StartAt string

	// States — все states в порядке первого появления в определении.
	States []string

	// Terminal — терминальные states в порядке States.
	Terminal []string

	// Deps — индекс зависимостей: state → прямые соседи.
	Deps map[string]domain.Adjacency
}

// Build выводит граф из определения.
//
// Алгоритм в два прохода: сначала собираем упорядоченный список states
// (дубликаты отбрасываются, выигрывает первое вхождение), затем
// связываем рёбра по переходам. В конце — проверка на циклы по Кану.
func Build(def *Definition) (*Graph, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	// Первый проход: упорядоченный список states без дубликатов.
	seen := make(map[string]*StateSpec, len(def.States))
	ordered := make([]string, 0, len(def.States))
	for i := range def.States {
		spec := &def.States[i]
		if _, dup := seen[spec.Name]; dup {
			continue // первое вхождение выигрывает
		}
		seen[spec.Name] = spec
		ordered = append(ordered, spec.Name)
	}

	if _, ok := seen[def.StartAt]; !ok {
		return nil, NewDefinitionError(def.StartAt, "start state is not declared", ErrUnknownStart)
	}

	g := &Graph{
		StartAt: def.StartAt,
		States:  ordered,
		Deps:    make(map[string]domain.Adjacency, len(ordered)),
	}
	for _, name := range ordered {
		g.Deps[name] = domain.Adjacency{
			Upstream:   make([]string, 0),
			Downstream: make([]string, 0),
		}
	}

	// Второй проход: связываем рёбра по переходам.
	for _, name := range ordered {
		spec := seen[name]
		for _, target := range spec.targets() {
			if _, ok := seen[target]; !ok {
				return nil, NewDefinitionError(name, fmt.Sprintf("transition targets unknown state: %s", target), ErrUnknownTarget)
			}
			g.addEdge(name, target)
		}
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	// Терминальные states: без исходящих рёбер или явно помеченные.
	for _, name := range ordered {
		if len(g.Deps[name].Downstream) == 0 || seen[name].IsTerminalType() {
			g.Terminal = append(g.Terminal, name)
		}
	}

	return g, nil
}

// BuildLinear выводит граф из плоского списка шагов (линейная цепочка).
func BuildLinear(name string, steps []string) (*Graph, error) {
	def, err := LinearDefinition(name, steps)
	if err != nil {
		return nil, err
	}
	return Build(def)
}

// targets возвращает все цели переходов state в порядке объявления.
func (s *StateSpec) targets() []string {
	out := make([]string, 0, 2+len(s.Branches))
	if s.Next != "" {
		out = append(out, s.Next)
	}
	for _, br := range s.Branches {
		if br.Target != "" {
			out = append(out, br.Target)
		}
	}
	if s.Default != "" {
		out = append(out, s.Default)
	}
	return out
}

// addEdge добавляет ребро from → to.
// Дубликаты рёбер игнорируются, чтобы не задвоить adjacency.
func (g *Graph) addEdge(from, to string) {
	adj := g.Deps[from]
	for _, d := range adj.Downstream {
		if d == to {
			return // уже связаны
		}
	}
	adj.Downstream = append(adj.Downstream, to)
	g.Deps[from] = adj

	back := g.Deps[to]
	back.Upstream = append(back.Upstream, from)
	g.Deps[to] = back
}

// checkAcyclic проверяет граф на циклы (алгоритм Кана).
func (g *Graph) checkAcyclic() error {
	inDegree := make(map[string]int, len(g.States))
	for _, name := range g.States {
		inDegree[name] = len(g.Deps[name].Upstream)
	}

	queue := make([]string, 0, len(g.States))
	for _, name := range g.States {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	visited := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		visited++

		for _, next := range g.Deps[name].Downstream {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(g.States) {
		return NewDefinitionError("", "definition contains a cycle", ErrCyclicDependency)
	}
	return nil
}

// Size возвращает количество states в графе.
func (g *Graph) Size() int {
	return len(g.States)
}

// IsTerminal проверяет, терминальный ли state.
func (g *Graph) IsTerminal(name string) bool {
	for _, t := range g.Terminal {
		if t == name {
			return true
		}
	}
	return false
}
