package version

import (
	"testing"
)

func TestParse_Lenient(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "full version",
			input: "3.2.1",
			want:  "3.2.1",
		},
		{
			name:  "major minor only",
			input: "2.4",
			want:  "2.4.0",
		},
		{
			name:  "major only",
			input: "3",
			want:  "3.0.0",
		},
		{
			name:  "leading v",
			input: "v1.7.2",
			want:  "1.7.2",
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "not-a-version",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("version:version_test - Parse(%q) expected error, got %v", tt.input, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("version:version_test - Parse(%q) unexpected error: %v", tt.input, err)
			}
			if v.String() != tt.want {
				t.Errorf("version:version_test - Parse(%q) = %q, want %q", tt.input, v.String(), tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	v20 := MustParse("2.0")
	v24 := MustParse("2.4")
	v30 := MustParse("3.0")

	if !AtLeast(v24, v20) {
		t.Errorf("version:version_test - AtLeast(2.4, 2.0) = false, want true")
	}
	if !AtLeast(v24, v24) {
		t.Errorf("version:version_test - AtLeast(2.4, 2.4) = false, want true")
	}
	if AtLeast(v24, v30) {
		t.Errorf("version:version_test - AtLeast(2.4, 3.0) = true, want false")
	}
	if AtLeast(nil, v20) {
		t.Errorf("version:version_test - AtLeast(nil, 2.0) = true, want false")
	}
}

func TestBefore(t *testing.T) {
	v10 := MustParse("1.0")
	v24 := MustParse("2.4")

	if !Before(v10, v24) {
		t.Errorf("version:version_test - Before(1.0, 2.4) = false, want true")
	}
	if Before(v24, v24) {
		t.Errorf("version:version_test - Before(2.4, 2.4) = true, want false")
	}
	if Before(v24, nil) {
		t.Errorf("version:version_test - Before(2.4, nil) = true, want false")
	}
}

func TestString_Nil(t *testing.T) {
	if got := String(nil); got != "" {
		t.Errorf("version:version_test - String(nil) = %q, want empty", got)
	}
	if got := String(MustParse("1.2.3")); got != "1.2.3" {
		t.Errorf("version:version_test - String(1.2.3) = %q", got)
	}
}
