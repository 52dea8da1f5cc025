package auth

import "testing"

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission Permission
		want       bool
	}{
		{name: "customer can book", role: RoleCustomer, permission: PermissionBookReservations, want: true},
		{name: "customer can review", role: RoleCustomer, permission: PermissionWriteReviews, want: true},
		{name: "customer cannot manage restaurants", role: RoleCustomer, permission: PermissionManageRestaurants, want: false},
		{name: "staff can manage reservations", role: RoleStaff, permission: PermissionManageReservations, want: true},
		{name: "staff cannot redeem rewards", role: RoleStaff, permission: PermissionRedeemRewards, want: false},
		{name: "staff cannot manage rewards", role: RoleStaff, permission: PermissionManageRewards, want: false},
		{name: "owner can manage rewards", role: RoleOwner, permission: PermissionManageRewards, want: true},
		{name: "owner inherits staff permissions", role: RoleOwner, permission: PermissionManageRestaurants, want: true},
		{name: "owner inherits customer permissions", role: RoleOwner, permission: PermissionBookReservations, want: true},
		{name: "unknown role", role: Role("admin"), permission: PermissionBrowse, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IsAllowed(tc.role, tc.permission)
			if got != tc.want {
				t.Fatalf("IsAllowed(%q, %q)=%v want=%v", tc.role, tc.permission, got, tc.want)
			}
		})
	}
}

func TestMustBeAllowed(t *testing.T) {
	if err := MustBeAllowed(RoleCustomer, PermissionManageRewards); err == nil {
		t.Fatal("expected forbidden error")
	}

	if err := MustBeAllowed(RoleOwner, PermissionManageRewards); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestPermissionsAreSorted(t *testing.T) {
	permissions := Permissions()
	if len(permissions) != 8 {
		t.Fatalf("expected 8 permissions, got %d", len(permissions))
	}
	for i := 1; i < len(permissions); i++ {
		if permissions[i-1] > permissions[i] {
			t.Fatalf("permissions out of order: %v", permissions)
		}
	}
}
