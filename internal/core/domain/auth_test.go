package domain

import "testing"

func TestAuthContext_Roles(t *testing.T) {
	tests := []struct {
		role      Role
		isAdmin   bool
		canUpload bool
	}{
		{RoleAdmin, true, true},
		{RoleTeacher, false, true},
		{RoleStudent, false, false},
		{Role("unknown"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := &AuthContext{UserID: "u1", Role: tt.role}
			if ctx.IsAdmin() != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, want %v", ctx.IsAdmin(), tt.isAdmin)
			}
			if ctx.CanUpload() != tt.canUpload {
				t.Errorf("CanUpload() = %v, want %v", ctx.CanUpload(), tt.canUpload)
			}
		})
	}
}
