// SPDX-License-Identifier: GPL-3.0-only

package passwordcheck

import (
	"context"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Setenv("PWNED_PASSWORDS_ENABLED", "false")

	cases := []struct {
		name     string
		password string
		valid    bool
	}{
		{"valid", "MySecretPassword@123", true},
		{"too short", "Ab1!xyz", false},
		{"no uppercase", "mysecretpassword@123", false},
		{"no lowercase", "MYSECRETPASSWORD@123", false},
		{"no digit", "MySecretPassword@abc", false},
		{"no special char", "MySecretPassword123", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(context.Background(), tc.password)
			if tc.valid && err != nil {
				t.Errorf("expected %q to pass, got %v", tc.password, err)
			}
			if !tc.valid && err == nil {
				t.Errorf("expected %q to fail", tc.password)
			}
		})
	}
}
