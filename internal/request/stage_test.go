package request

import "testing"

func TestParseStage(t *testing.T) {
	cases := []struct {
		input string
		want  Stage
		ok    bool
	}{
		{"request", StageRequest, true},
		{" In_Sell ", StageInSell, true},
		{"COMPLETED", StageCompleted, true},
		{"val_materiales_mobile", StageValMobile, true},
		{"", "", false},
		{"unknown_stage", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseStage(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseStage(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestStageTableOrdering(t *testing.T) {
	stages := Stages()
	if stages[0] != StageRequest {
		t.Fatalf("expected request first, got %s", stages[0])
	}
	if stages[len(stages)-1] != StageCompleted {
		t.Fatalf("expected completed last, got %s", stages[len(stages)-1])
	}

	next, ok := StageGestionOp.NextInOrder()
	if !ok || next != StageCierre {
		t.Fatalf("expected gestion_operativa to precede cierre, got %s, %v", next, ok)
	}
	if _, ok := StageCompleted.NextInOrder(); ok {
		t.Fatal("expected no stage after completed")
	}
}

func TestTerminalStage(t *testing.T) {
	if !StageCompleted.IsTerminal() {
		t.Fatal("completed must be terminal")
	}
	for _, stage := range OpenStages() {
		if stage.IsTerminal() {
			t.Fatalf("open stage %s reported terminal", stage)
		}
	}
}

func TestRequiresAssignee(t *testing.T) {
	if StageRequest.RequiresAssignee() {
		t.Fatal("intake stage must not require an assignee")
	}
	if !StageInSell.RequiresAssignee() {
		t.Fatal("in_sell must require an assignee")
	}
	if StageCompleted.RequiresAssignee() {
		t.Fatal("completed must not require an assignee")
	}
}
