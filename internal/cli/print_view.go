package cli

import (
	"fmt"
	"io"
	"sync"

	"rewriter-cli/internal/workflow"
)

// printView is the headless workflow.View: notifications become stderr lines,
// everything visual is dropped.
type printView struct {
	workflow.NopView

	mu sync.Mutex
	w  io.Writer
}

func newPrintView(w io.Writer) *printView {
	return &printView{w: w}
}

func (v *printView) ShowNotification(n workflow.Notification) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.w, "%s: %s\n", n.Severity, n.Message)
}
