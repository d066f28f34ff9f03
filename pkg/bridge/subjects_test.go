package bridge

import "testing"

func TestBuildChangeSubject(t *testing.T) {
	tests := []struct {
		name string
		db   string
		want string
	}{
		{
			name: "simple name",
			db:   "people",
			want: "couch.changes.people",
		},
		{
			name: "dotted name is replaced",
			db:   "app.users",
			want: "couch.changes.app_users",
		},
		{
			name: "slashed name is replaced",
			db:   "tenant/users",
			want: "couch.changes.tenant_users",
		},
		{
			name: "wildcard characters are replaced",
			db:   "a*b>c",
			want: "couch.changes.a_b_c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildChangeSubject(tt.db); got != tt.want {
				t.Errorf("bridge:subjects_test - BuildChangeSubject(%q) = %q, want %q", tt.db, got, tt.want)
			}
		})
	}
}
