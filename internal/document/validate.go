package document

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvariant = errors.New("document: invariant violated")

// InvariantError lists every violation found by Validate.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvariant, strings.Join(e.Violations, "; "))
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

// Validate checks the checklist structure of the tree and key uniqueness.
func Validate(root *Node) error {
	var v []string
	keys := make(map[Key]bool)
	root.Walk(func(n *Node) bool {
		if keys[n.key] {
			v = append(v, fmt.Sprintf("duplicate key %s", n.key))
		}
		keys[n.key] = true

		switch n.kind {
		case KindChecklistList:
			listID := ListID(n)
			seen := make(map[string]bool)
			for _, c := range n.children {
				if c.kind != KindChecklistItem {
					v = append(v, fmt.Sprintf("checklist %s holds a %s", listID, c.kind))
					continue
				}
				a := c.attrs.(ChecklistItemAttrs)
				if a.ListID != listID {
					v = append(v, fmt.Sprintf("item %s has listId %s under checklist %s", a.ItemID, a.ListID, listID))
				}
				if seen[a.ItemID] {
					v = append(v, fmt.Sprintf("duplicate itemId %s in checklist %s", a.ItemID, listID))
				}
				seen[a.ItemID] = true
			}
			if len(n.children) == 0 {
				v = append(v, fmt.Sprintf("checklist %s is empty", listID))
			}
		case KindChecklistItem:
			a := n.attrs.(ChecklistItemAttrs)
			if n.parent == nil || n.parent.kind != KindChecklistList {
				v = append(v, fmt.Sprintf("item %s is outside a checklist", a.ItemID))
			}
			hasParagraph := false
			for _, c := range n.children {
				if c.kind == KindParagraph {
					hasParagraph = true
				}
			}
			if !hasParagraph {
				v = append(v, fmt.Sprintf("item %s has no paragraph", a.ItemID))
			}
		}
		return true
	})
	if len(v) > 0 {
		return &InvariantError{Violations: v}
	}
	return nil
}
