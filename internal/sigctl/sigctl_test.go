package sigctl

import (
	"testing"

	"go.uber.org/zap"

	"github.com/dpapathanasiou/coatcheck/internal/compaction"
)

func TestRegisterDoesNotError(t *testing.T) {
	var flag compaction.Flag

	if err := Register(&flag, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}
