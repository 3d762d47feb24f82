package domain_test

import (
	"testing"

	"github.com/bnema/composectl/internal/domain"
)

// TestLabelConstantsValues guards against accidental value changes that
// would silently break helper container discovery.
func TestLabelConstantsValues(t *testing.T) {
	tests := []struct {
		constant string
		expected string
	}{
		{domain.LabelShim, "composectl.shim"},
		{domain.LabelTarget, "composectl.target"},
	}
	for _, tt := range tests {
		if tt.constant != tt.expected {
			t.Errorf("constant value changed: got %q, want %q", tt.constant, tt.expected)
		}
	}
}
