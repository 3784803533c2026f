package slug

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Crimson Guard", "crimson-guard"},
		{"  Crimson   Guard  ", "crimson-guard"},
		{"CRIMSON-GUARD", "crimson-guard"},
		{"Crimson -- Guard", "crimson-guard"},
		{"Night's Watch!", "nights-watch"},
		{"snake_case name", "snake_case-name"},
		{"FAST 2024", "fast-2024"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Make(tt.input); got != tt.want {
				t.Errorf("Make(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMake_Idempotent(t *testing.T) {
	for _, name := range []string{"Crimson Guard", "A  B--C", "x_y z"} {
		once := Make(name)
		if twice := Make(once); twice != once {
			t.Errorf("Make(Make(%q)) = %q, want %q", name, twice, once)
		}
	}
}
