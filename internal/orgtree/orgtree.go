// Package orgtree holds the pure algorithms over the department adjacency list:
// level assignment, cycle detection for reparenting, and nesting of level-ordered rows.
package orgtree

import (
	"sort"

	"github.com/nsrz/intranet/internal/domain"
)

// Node is one adjacency-list row.
type Node struct {
	ID       int64
	Name     string
	ParentID *int64
}

// TreeNode is a department in the nested view.
type TreeNode struct {
	ID       int64       `json:"id"`
	Name     string      `json:"name"`
	Level    int         `json:"level"`
	Children []*TreeNode `json:"children"`
}

// ParentLookup returns the parent of id and whether id exists.
type ParentLookup func(id int64) (parentID *int64, found bool, err error)

// Levels walks the forest breadth-first from every root and returns each reachable node
// once, ordered by (level, name, id). Nodes that cannot be reached from a root are omitted.
func Levels(nodes []Node) []domain.HierarchyEntry {
	children := make(map[int64][]Node, len(nodes))
	var queue []domain.HierarchyEntry
	for _, n := range nodes {
		if n.ParentID == nil {
			queue = append(queue, domain.HierarchyEntry{ID: n.ID, Name: n.Name, Level: 0})
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	visited := make(map[int64]struct{}, len(nodes))
	out := make([]domain.HierarchyEntry, 0, len(nodes))
	for len(queue) > 0 {
		entry := queue[0]
		queue = queue[1:]
		if _, seen := visited[entry.ID]; seen {
			continue
		}
		visited[entry.ID] = struct{}{}
		out = append(out, entry)

		for _, child := range children[entry.ID] {
			parentID := entry.ID
			queue = append(queue, domain.HierarchyEntry{
				ID:       child.ID,
				Name:     child.Name,
				ParentID: &parentID,
				Level:    entry.Level + 1,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// WouldCycle reports whether making newParentID the parent of targetID closes a loop.
// It climbs from newParentID towards the root; reaching targetID, or revisiting a node,
// means a cycle. A missing ancestor ends the walk without a cycle.
func WouldCycle(targetID, newParentID int64, parentOf ParentLookup) (bool, error) {
	visited := make(map[int64]struct{})
	current := newParentID
	for {
		if current == targetID {
			return true, nil
		}
		if _, seen := visited[current]; seen {
			return true, nil
		}
		visited[current] = struct{}{}

		parentID, found, err := parentOf(current)
		if err != nil {
			return false, err
		}
		if !found || parentID == nil {
			return false, nil
		}
		current = *parentID
	}
}

// Nest turns level-ordered entries (parents before children) into a forest.
// Entries whose parent was not seen earlier are dropped.
func Nest(entries []domain.HierarchyEntry) []*TreeNode {
	index := make(map[int64]*TreeNode, len(entries))
	roots := make([]*TreeNode, 0)
	for _, e := range entries {
		node := &TreeNode{ID: e.ID, Name: e.Name, Level: e.Level, Children: []*TreeNode{}}
		if e.ParentID == nil {
			index[e.ID] = node
			roots = append(roots, node)
			continue
		}
		parent, ok := index[*e.ParentID]
		if !ok {
			continue
		}
		index[e.ID] = node
		parent.Children = append(parent.Children, node)
	}
	return roots
}
