package config

import "testing"

func TestOperationFilter(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		denied  []string
		op      string
		want    bool
	}{
		{"no patterns", nil, nil, "InvokeElement", true},
		{"allowed prefix", []string{"Get*"}, nil, "GetEventLog", true},
		{"not in allowed", []string{"Get*"}, nil, "InvokeElement", false},
		{"denied wins", []string{"*"}, []string{"*Clipboard*"}, "SetClipboardText", false},
		{"denied only", nil, []string{"Navigate"}, "Navigate", false},
		{"denied only other", nil, []string{"Navigate"}, "TakeScreenshot", true},
		{"alternatives", []string{"{Start,Stop}EventMonitoring"}, nil, "StopEventMonitoring", true},
		{"unclosed brace", []string{"{Get"}, nil, "Get", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewOperationFilter(tt.allowed, tt.denied)
			if err != nil {
				t.Fatalf("NewOperationFilter failed: %v", err)
			}
			if got := f.IsAllowed(tt.op); got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
}

func TestOperationFilterNil(t *testing.T) {
	var f *OperationFilter
	if !f.IsAllowed("anything") {
		t.Error("nil filter should allow everything")
	}
}

func TestConfigFilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Operations.DeniedPatterns = []string{"Navigate"}
	f, err := cfg.Filter()
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if f.IsAllowed("Navigate") {
		t.Error("Navigate should be denied")
	}
}
