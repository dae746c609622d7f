package geometry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtend33_IdentityAugmented(t *testing.T) {
	r := Mat3{
		{0.9999, 0.0098, -0.0074},
		{-0.0098, 0.9999, -0.0043},
		{0.0074, 0.0044, 0.9999},
	}
	m := Extend33(r)

	assert.Equal(t, 1.0, m[3][3])
	for i := 0; i < 3; i++ {
		assert.Zero(t, m[3][i], "bottom row [%d]", i)
		assert.Zero(t, m[i][3], "right column [%d]", i)
		for j := 0; j < 3; j++ {
			assert.Equal(t, r[i][j], m[i][j])
		}
	}
}

func TestExtend34_AppendsHomogeneousRow(t *testing.T) {
	tr := Mat34{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	want := Mat4{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{0, 0, 0, 1},
	}
	if diff := cmp.Diff(want, Extend34(tr)); diff != "" {
		t.Errorf("Extend34() mismatch (-want +got):\n%s", diff)
	}
}

func TestMat4_InverseOfRigidTransform(t *testing.T) {
	rigid := Extend34(Mat34{
		{0, -1, 0, 0.27},
		{0, 0, -1, -0.08},
		{1, 0, 0, -0.06},
	})

	inv, err := rigid.Inverse()
	require.NoError(t, err)

	if diff := cmp.Diff(Identity4(), rigid.Mul(inv), approx); diff != "" {
		t.Errorf("T·T⁻¹ is not identity (-want +got):\n%s", diff)
	}

	p := [3]float64{4, -2, 1.5}
	back := inv.Apply(rigid.Apply(p))
	assert.InDeltaSlice(t, p[:], back[:], 1e-9)
}

func TestMat4_InverseSingular(t *testing.T) {
	_, err := Mat4{}.Inverse()
	assert.Error(t, err)
}

func TestMat3_TransposeInvertsRotation(t *testing.T) {
	rule := conversionRules[modePair{ModeCamera, ModeLidar}]
	inverse := conversionRules[modePair{ModeLidar, ModeCamera}]
	assert.Equal(t, inverse.Rotation, rule.Rotation.Transpose())
	assert.Equal(t, rule.Rotation, Extend33(rule.Rotation).Rotation())
}
