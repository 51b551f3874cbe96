package reqctx

import (
	"context"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	ctx := WithUserID(WithRID(context.Background(), "r-1"), "u-1")
	if got := RID(ctx); got != "r-1" {
		t.Fatalf("RID=%q want r-1", got)
	}
	if got := UserID(ctx); got != "u-1" {
		t.Fatalf("UserID=%q want u-1", got)
	}
	if RID(context.Background()) != "" || UserID(context.Background()) != "" {
		t.Fatal("empty context should yield empty values")
	}
}
