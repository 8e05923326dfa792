package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStrategy struct {
	version string
}

func TestResolveExactVersion(t *testing.T) {
	reg := New()
	reg.Register(RoleStrategy, "v2", func() (any, error) {
		return &fakeStrategy{version: "v2"}, nil
	})

	impl, res, err := reg.Resolve(RoleStrategy, "v2")
	assert.NoError(t, err)
	assert.Equal(t, "v2", impl.(*fakeStrategy).version)
	assert.Equal(t, "v2", res.Resolved)
	assert.False(t, res.Fallback)
}

func TestResolveVersionNormalization(t *testing.T) {
	reg := New()
	reg.Register(RoleStrategy, "v1", func() (any, error) {
		return &fakeStrategy{version: "v1"}, nil
	})

	impl, res, err := reg.Resolve(RoleStrategy, "  V1 ")
	assert.NoError(t, err)
	assert.Equal(t, "v1", impl.(*fakeStrategy).version)
	assert.False(t, res.Fallback)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	reg := New()
	reg.RegisterDefault(RoleStrategy, func() (any, error) {
		return &fakeStrategy{version: "default"}, nil
	})

	impl, res, err := reg.Resolve(RoleStrategy, "v99")
	assert.NoError(t, err)
	assert.Equal(t, "default", impl.(*fakeStrategy).version)
	assert.True(t, res.Fallback)
	assert.Equal(t, "v99", res.Requested)

	// 同一 (role, version) 的回退重复解析时行为一致
	impl2, res2, err := reg.Resolve(RoleStrategy, "v99")
	assert.NoError(t, err)
	assert.Equal(t, "default", impl2.(*fakeStrategy).version)
	assert.True(t, res2.Fallback)
}

func TestResolveNoDefaultFails(t *testing.T) {
	reg := New()
	_, _, err := reg.Resolve(RoleEvaluator, "v1")
	assert.Error(t, err)
}

func TestResolveRolesAreIndependent(t *testing.T) {
	reg := New()
	reg.Register(RoleEvaluator, "v1", func() (any, error) {
		return &fakeStrategy{version: "eval-v1"}, nil
	})

	_, _, err := reg.Resolve(RoleStrategy, "v1")
	assert.Error(t, err, "角色之间不共享注册表")
}

func TestVersions(t *testing.T) {
	reg := New()
	reg.Register(RoleStrategy, "v2", func() (any, error) { return nil, nil })
	reg.Register(RoleStrategy, "v1", func() (any, error) { return nil, nil })
	reg.Register(RoleEvaluator, "v1", func() (any, error) { return nil, nil })

	assert.Equal(t, []string{"v1", "v2"}, reg.Versions(RoleStrategy))
	assert.Equal(t, []string{"v1"}, reg.Versions(RoleEvaluator))
}
