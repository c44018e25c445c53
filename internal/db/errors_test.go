// Copyright (c) 2026 Claviger Team
// Claviger - physical key custody tracker
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"errors"
	"testing"
)

func TestMapDBError(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: assets.name"), ErrDuplicate},
		{"mysql duplicate", errors.New("Error 1062: Duplicate entry 'Lab-203' for key 'name'"), ErrDuplicate},
		{"postgres unique violation", errors.New("ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)"), ErrDuplicate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MapDBError(tc.in)
			if !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("MapDBError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	// Unrelated errors pass through unchanged.
	sentinel := errors.New("disk I/O error")
	if got := MapDBError(sentinel); got != sentinel {
		t.Fatalf("unrelated error should pass through, got %v", got)
	}
}
