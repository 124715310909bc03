package core

import "testing"

func TestAllRoles_Order(t *testing.T) {
	roles := AllRoles()
	if len(roles) != 4 {
		t.Fatalf("AllRoles() returned %d roles, want 4", len(roles))
	}
	for i, r := range roles {
		if RoleOrder(r) != i {
			t.Errorf("RoleOrder(%s) = %d, want %d", r, RoleOrder(r), i)
		}
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"market", RoleMarket, false},
		{"competitive", RoleCompetitive, false},
		{"risk", RoleRisk, false},
		{"strategic", RoleStrategic, false},
		{"Market", "", true}, // case sensitive
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRole(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if err != nil && !IsCategory(err, ErrCatValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRole_TitleAndLabel(t *testing.T) {
	tests := []struct {
		role  Role
		title string
		label string
	}{
		{RoleMarket, "Market Intelligence", "MARKET"},
		{RoleCompetitive, "Competitive Landscape", "COMPETITIVE"},
		{RoleRisk, "Strategic Risk Assessment", "RISK"},
		{RoleStrategic, "Strategic Recommendations", "STRATEGIC"},
		{Role("other"), "other", "other"},
	}
	for _, tt := range tests {
		if got := tt.role.Title(); got != tt.title {
			t.Errorf("%s.Title() = %q, want %q", tt.role, got, tt.title)
		}
		if got := tt.role.Label(); got != tt.label {
			t.Errorf("%s.Label() = %q, want %q", tt.role, got, tt.label)
		}
	}
}

func TestDefaultModelTiers(t *testing.T) {
	if len(DefaultModelTiers) != 3 || DefaultModelTiers[0] != ModelLlama70B {
		t.Errorf("DefaultModelTiers = %v", DefaultModelTiers)
	}
}
