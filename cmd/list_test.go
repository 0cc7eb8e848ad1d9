package cmd

import (
	"testing"
)

func TestListCommand_Flags(t *testing.T) {
	flags := listCmd.Flags()

	tests := []struct {
		name     string
		flagType string
	}{
		{"apps", "bool"},
		{"app", "string"},
	}

	for _, tt := range tests {
		f := flags.Lookup(tt.name)
		if f == nil {
			t.Errorf("expected flag %q not found", tt.name)
			continue
		}
		if f.Value.Type() != tt.flagType {
			t.Errorf("flag %q: expected type %q, got %q", tt.name, tt.flagType, f.Value.Type())
		}
	}
}

func TestExecutionFlags(t *testing.T) {
	for _, c := range []string{"resolve", "replay"} {
		sub, _, err := rootCmd.Find([]string{c})
		if err != nil {
			t.Fatalf("find %s: %v", c, err)
		}
		for _, name := range []string{"click", "safe-click", "retries"} {
			if sub.Flags().Lookup(name) == nil {
				t.Errorf("%s: expected flag %q not found", c, name)
			}
		}
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" btn, ,lnk ,")
	if len(got) != 2 || got[0] != "btn" || got[1] != "lnk" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty input should yield nil")
	}
}
