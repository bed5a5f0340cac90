package groups

import (
	"testing"

	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_FindByRole(t *testing.T) {
	def := NewDefinition("level",
		Entry{ResourceReference{Name: "Lighting", Kind: KindIndirect}, RoleEnvironment},
		Entry{ResourceReference{Name: "Level1"}, RoleActive},
		Entry{ResourceReference{Name: "Level1Copy"}, RoleActive},
	)

	ref, ok := def.FindByRole(RoleActive)
	require.True(t, ok)
	assert.Equal(t, "Level1", ref.Name, "first match in definition order")

	_, ok = def.FindByRole(RoleCinematic)
	assert.False(t, ok)
}

func TestDefinition_FindByRoleOnNil(t *testing.T) {
	var def *Definition
	_, ok := def.FindByRole(RoleActive)
	assert.False(t, ok)
	assert.True(t, def.IsEmpty())
	assert.Empty(t, def.Names())
}

func TestDefinition_Names(t *testing.T) {
	def := NewDefinition("menu",
		Entry{ResourceReference{Name: "Menu"}, RoleActive},
		Entry{ResourceReference{Name: "UI"}, RoleUserInterface},
	)
	assert.Equal(t, []string{"Menu", "UI"}, def.Names())
}

func TestDefinition_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		def := NewDefinition("ok",
			Entry{ResourceReference{Name: "A"}, RoleActive},
			Entry{ResourceReference{Name: "B", Kind: KindIndirect, Address: "scenes/b"}, RoleHUD},
		)
		assert.NoError(t, def.Validate())
	})

	t.Run("zero active entries is fine", func(t *testing.T) {
		def := NewDefinition("ok", Entry{ResourceReference{Name: "A"}, RoleTooling})
		assert.NoError(t, def.Validate())
	})

	tests := []struct {
		name    string
		entries []Entry
		message string
	}{
		{"duplicate", []Entry{{ResourceReference{Name: "A"}, RoleHUD}, {ResourceReference{Name: "A"}, RoleHUD}}, "more than once"},
		{"empty name", []Entry{{ResourceReference{Name: " "}, RoleHUD}}, "name is empty"},
		{"two active", []Entry{{ResourceReference{Name: "A"}, RoleActive}, {ResourceReference{Name: "B"}, RoleActive}}, "at most one"},
		{"bad kind", []Entry{{ResourceReference{Name: "A", Kind: ResourceKind(9)}, RoleHUD}}, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDefinition("bad", tt.entries...).Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrInvalidDefinition)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestParseResourceKind(t *testing.T) {
	k, err := ParseResourceKind("Indirect")
	require.NoError(t, err)
	assert.Equal(t, KindIndirect, k)

	k, err = ParseResourceKind("")
	require.NoError(t, err)
	assert.Equal(t, KindDirect, k)

	_, err = ParseResourceKind("teleport")
	assert.Error(t, err)
}

func TestResourceReference_Key(t *testing.T) {
	assert.Equal(t, "Menu", ResourceReference{Name: "Menu"}.Key())
	assert.Equal(t, "scenes/menu", ResourceReference{Name: "Menu", Address: "scenes/menu"}.Key())
}
