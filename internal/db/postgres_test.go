package db

import "testing"

func TestPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@localhost:5432/sync":   "pgx5://u:p@localhost:5432/sync",
		"postgresql://u:p@localhost:5432/sync": "pgx5://u:p@localhost:5432/sync",
		"u:p@localhost/sync":                   "pgx5://u:p@localhost/sync",
	}
	for in, want := range tests {
		if got := pgx5URL(in); got != want {
			t.Fatalf("pgx5URL(%q) = %q, want %q", in, got, want)
		}
	}
}
