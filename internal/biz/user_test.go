package biz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleVip, ParseRole("VIP"))
	assert.Equal(t, RoleEnterprise, ParseRole("ENTERPRISE"))
	// 未知编码按免费用户处理
	assert.Equal(t, RoleFree, ParseRole("vip"))
	assert.Equal(t, RoleFree, ParseRole(""))
}

func TestUserValid(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"启用的免费用户", User{Role: RoleFree, Enabled: true}, true},
		{"禁用用户", User{Role: RoleFree, Enabled: false}, false},
		{"VIP未过期", User{Role: RoleVip, Enabled: true, VipExpireAt: &future}, true},
		{"VIP已过期", User{Role: RoleVip, Enabled: true, VipExpireAt: &past}, false},
		{"VIP无有效期视为长期有效", User{Role: RoleVip, Enabled: true}, true},
		{"试用未过期", User{Role: RoleTrial, Enabled: true, TrialExpireAt: &future}, true},
		{"试用已过期", User{Role: RoleTrial, Enabled: true, TrialExpireAt: &past}, false},
		{"企业用户不校验有效期", User{Role: RoleEnterprise, Enabled: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Valid(now))
		})
	}
}
