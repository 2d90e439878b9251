package steps

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/ruuda/miniserver/internal/term"
)

// Report renders the tree of steps that ran, with status and duration.
func (t *Tracker) Report() string {
	t.mux.Lock()
	defer t.mux.Unlock()

	var report bytes.Buffer
	fmt.Fprintln(&report, "Miniserver Report:")
	for _, child := range t.childs[t.root] {
		root := treeprint.NewWithRoot(t.printNode(child))
		t.traverseTree(root, t.childs[child])

		tree := strings.TrimSpace(root.String())
		if len(tree) > 0 {
			fmt.Fprintln(&report, tree)
		}
	}
	return report.String()
}

func (t *Tracker) traverseTree(tree treeprint.Tree, childs []string) {
	for _, child := range childs {
		txt := t.printNode(child)
		t.traverseTree(tree.AddBranch(txt), t.childs[child])
	}
}

func (t *Tracker) printNode(child string) string {
	entry := t.ran[child]
	var txt string
	if entry.err == nil {
		txt += term.Colorize("[OK] ", term.Green)
	} else {
		txt += term.Colorize("[ERR] ", term.Red)
	}
	txt += child
	txt += term.Colorize(fmt.Sprintf(" [took %s]", entry.took), term.Yellow)
	if entry.err != nil && !t.childHasError(t.childs[child]) {
		txt += "\n" + term.Colorize(entry.err.Error(), term.Red)
	}
	return txt
}

func (t *Tracker) childHasError(childs []string) bool {
	for _, child := range childs {
		if t.ran[child].err != nil {
			return true
		}
	}
	return false
}
