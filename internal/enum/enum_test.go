package enum

import "testing"

func TestLineTransitions_ForwardPath(t *testing.T) {
	steps := [][2]string{
		{LineStatusPending, LineStatusCooking},
		{LineStatusCooking, LineStatusReady},
		{LineStatusReady, LineStatusServed},
	}
	for _, s := range steps {
		if !LineTransitionAllowed(s[0], s[1]) {
			t.Errorf("expected %s -> %s to be allowed", s[0], s[1])
		}
	}
}

func TestLineTransitions_NoSkipping(t *testing.T) {
	if LineTransitionAllowed(LineStatusPending, LineStatusReady) {
		t.Error("PENDING -> READY must not skip COOKING")
	}
	if LineTransitionAllowed(LineStatusPending, LineStatusServed) {
		t.Error("PENDING -> SERVED must not be allowed")
	}
}

func TestLineTransitions_NoBackward(t *testing.T) {
	if LineTransitionAllowed(LineStatusReady, LineStatusCooking) {
		t.Error("READY -> COOKING must not be allowed")
	}
	if LineTransitionAllowed(LineStatusCooking, LineStatusPending) {
		t.Error("COOKING -> PENDING must not be allowed")
	}
}

func TestLineTransitions_CancelFromNonTerminal(t *testing.T) {
	for _, from := range []string{LineStatusPending, LineStatusCooking, LineStatusReady} {
		if !LineTransitionAllowed(from, LineStatusCancelled) {
			t.Errorf("expected %s -> CANCELLED to be allowed", from)
		}
	}
}

func TestLineTransitions_TerminalStatesAllowNothing(t *testing.T) {
	for _, from := range []string{LineStatusServed, LineStatusCancelled} {
		for _, to := range []string{LineStatusPending, LineStatusCooking, LineStatusReady, LineStatusServed, LineStatusCancelled} {
			if LineTransitionAllowed(from, to) {
				t.Errorf("terminal %s must not transition to %s", from, to)
			}
		}
	}
}

func TestOrderTransitions(t *testing.T) {
	if !OrderTransitionAllowed(OrderStatusPending, OrderStatusCooking) {
		t.Error("PENDING -> COOKING should be allowed")
	}
	if !OrderTransitionAllowed(OrderStatusCooking, OrderStatusPaid) {
		t.Error("COOKING -> PAID should be allowed")
	}
	if OrderTransitionAllowed(OrderStatusPending, OrderStatusPaid) {
		t.Error("PENDING -> PAID must go through COOKING")
	}
	if OrderTransitionAllowed(OrderStatusPaid, OrderStatusCancelled) {
		t.Error("PAID is terminal")
	}
}

func TestStockTakeTransitions(t *testing.T) {
	if !StockTakeTransitionAllowed(StockTakeStatusDraft, StockTakeStatusCompleted) {
		t.Error("DRAFT -> COMPLETED should be allowed")
	}
	if !StockTakeTransitionAllowed(StockTakeStatusDraft, StockTakeStatusCancelled) {
		t.Error("DRAFT -> CANCELLED should be allowed")
	}
	if StockTakeTransitionAllowed(StockTakeStatusCompleted, StockTakeStatusDraft) {
		t.Error("COMPLETED is terminal")
	}
}

func TestLineStatusTerminal(t *testing.T) {
	if !LineStatusTerminal(LineStatusServed) || !LineStatusTerminal(LineStatusCancelled) {
		t.Error("SERVED and CANCELLED are terminal")
	}
	if LineStatusTerminal(LineStatusReady) {
		t.Error("READY is not terminal")
	}
}
