// Command approval-demo runs a two-step workflow that pauses at a
// KindApproval node until an operator approves or rejects it from stdin.
// Grounded on the retrieved example's examples/human_in_the_loop CLI flow,
// generalized onto the formal Approval Coordinator (C10).
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dshills/agentkernel/kernel"
	"github.com/dshills/agentkernel/kernel/emit"
	"github.com/dshills/agentkernel/kernel/store"
)

func main() {
	schema := kernel.NewStateSchema(map[string]kernel.FieldPolicy{
		"request": kernel.PolicyReplace,
		"output":  kernel.PolicyReplace,
	})

	conditions := kernel.NewConditionRegistry()

	graph := kernel.NewGraph()
	graph.AddNode(&kernel.Node{
		ID:   "generate",
		Kind: kernel.KindStep,
		Handler: kernel.StepHandlerFunc(func(_ context.Context, state kernel.WorkflowState, _ kernel.StepContext) (kernel.StepResult, error) {
			request, _ := state.Get("request")
			return kernel.StepResult{
				Delta: kernel.Delta{"output": fmt.Sprintf("generated response for %v", request)},
				ProgressEntry: kernel.ProgressEntry{
					TaskID: "generate", Action: "generate", ProgressMade: true,
				},
			}, nil
		}),
		To: "approval-gate",
	})
	graph.AddNode(&kernel.Node{
		ID:             "approval-gate",
		Kind:           kernel.KindApproval,
		ApproverMarker: "reviewer",
		Next:           "done",
	})
	graph.AddNode(&kernel.Node{ID: "done", Kind: kernel.KindTerminal})
	graph.SetEntry("generate")

	if err := graph.Validate(conditions); err != nil {
		log.Fatalf("invalid graph: %v", err)
	}

	backend := store.NewMemStore()
	engine := kernel.NewEngine(graph, schema, conditions, backend,
		kernel.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
	)

	go driveApprovalFromStdin(engine)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	initial := kernel.WorkflowState{Fields: map[string]any{"request": "summarize Q3 metrics"}}
	final, status, err := engine.Run(ctx, "run-1", initial)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	output, _ := final.Get("output")
	fmt.Printf("run finished with status %s, output=%v\n", status, output)
}

// driveApprovalFromStdin polls for a pending approval and prompts the
// operator on stdin once one appears.
func driveApprovalFromStdin(engine *kernel.Engine) {
	for i := 0; i < 100; i++ {
		pending := engine.Approvals().Pending()
		if len(pending) == 0 {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		approval := pending[0]
		fmt.Printf("\napproval requested for workflow %s (id=%s)\napprove? [y/n]: ", approval.WorkflowID, approval.ApprovalID)

		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		approved := strings.EqualFold(strings.TrimSpace(line), "y")

		decision := kernel.Decision{
			ApprovalID: approval.ApprovalID,
			Approved:   approved,
			ReviewerID: "cli-operator",
		}
		if err := engine.Approvals().Submit(context.Background(), "run-1", decision); err != nil {
			log.Printf("submit decision: %v", err)
		}
		return
	}
}
