package entities

import "testing"

func TestParseHotmartEvent(t *testing.T) {
	cases := []struct {
		name string
		want HotmartEvent
	}{
		{"PURCHASE_COMPLETE", HotmartPurchaseComplete},
		{"PURCHASE_APPROVED", HotmartPurchaseApproved},
		{"PURCHASE_CANCELED", HotmartPurchaseCanceled},
		{"PURCHASE_REFUNDED", HotmartPurchaseRefunded},
		{"PURCHASE_DELAYED", HotmartPurchaseDelayed},
		{"PURCHASE_CHARGEBACK", HotmartPurchaseChargeback},
		{"PURCHASE_BILLET_PRINTED", HotmartUnknown},
		{"", HotmartUnknown},
	}
	for _, tc := range cases {
		if got := ParseHotmartEvent(tc.name); got != tc.want {
			t.Errorf("ParseHotmartEvent(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHotmartEventClassification(t *testing.T) {
	if !HotmartPurchaseComplete.IsCompletion() || !HotmartPurchaseApproved.IsCompletion() {
		t.Error("complete/approved must classify as completion")
	}
	if HotmartPurchaseCanceled.IsCompletion() {
		t.Error("canceled must not classify as completion")
	}
	for _, e := range []HotmartEvent{HotmartPurchaseCanceled, HotmartPurchaseRefunded, HotmartPurchaseChargeback} {
		if !e.IsCancellation() {
			t.Errorf("%v must classify as cancellation", e)
		}
	}
	if HotmartUnknown.IsCompletion() || HotmartUnknown.IsCancellation() {
		t.Error("unknown event must classify as neither")
	}
}

func TestAppendInteractionRecomputesDerived(t *testing.T) {
	metadata := ConversationMetadata{WhatsappNumber: "5511999990000"}

	first := Interaction{MessageID: "m1", Direction: DirectionInbound}
	second := Interaction{MessageID: "m2", Direction: DirectionOutbound}
	metadata.AppendInteraction(first)
	metadata.AppendInteraction(second)

	if metadata.MessageCount != 2 {
		t.Errorf("expected messageCount 2, got %d", metadata.MessageCount)
	}
	if len(metadata.Interactions) != 2 {
		t.Errorf("expected 2 interactions, got %d", len(metadata.Interactions))
	}
}

func TestPurchaseMetadataRoundTripPreservesStatus(t *testing.T) {
	raw, err := EncodeMetadata(PurchaseMetadata{
		TransactionID: "HP001",
		Price:         297,
		Status:        PurchaseStatusCanceled,
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := DecodePurchase(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.Canceled() {
		t.Error("canceled status must survive the round trip")
	}
}
