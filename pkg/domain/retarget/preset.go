// 指示: miu200521358
package retarget

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// PresetName は補正表プリセット名。
type PresetName string

const (
	// PRESET_TUNED は分類毎の回転補正を行う既定プリセット。
	PRESET_TUNED PresetName = "tuned"
	// PRESET_PASSTHROUGH は回転を素通しし、ルートの水平移動を抑止するプリセット。
	PRESET_PASSTHROUGH PresetName = "passthrough"
)

const (
	upperLegOffsetDegree = 180.0
	upperArmYawDegree    = 10.0
)

// TunedCorrectionTable は分類毎の調整済み補正表を返す。
func TunedCorrectionTable() CorrectionTable {
	return CorrectionTable{
		BONE_CLASS_HIPS: {
			Order:         MULTIPLY_ORDER_NONE,
			PositionScale: DefaultPositionScale,
		},
		BONE_CLASS_UPPER_LEG: {
			Order:         MULTIPLY_ORDER_POST,
			Offset:        AxisAngle{Axis: mgl64.Vec3{0, 0, 1}, AngleDegrees: upperLegOffsetDegree},
			Flip:          [3]bool{true, true, true},
			PositionScale: DefaultPositionScale,
		},
		BONE_CLASS_LOWER_LEG: {
			Order:         MULTIPLY_ORDER_NONE,
			Flip:          [3]bool{true, false, true},
			PositionScale: DefaultPositionScale,
		},
		BONE_CLASS_FOOT: {
			Order:         MULTIPLY_ORDER_NONE,
			Flip:          [3]bool{true, false, true},
			PositionScale: DefaultPositionScale,
		},
		BONE_CLASS_UPPER_ARM: {
			Order:         MULTIPLY_ORDER_PRE,
			Offset:        AxisAngle{Axis: mgl64.Vec3{0, 1, 0}, AngleDegrees: upperArmYawDegree},
			MirrorBySide:  true,
			PositionScale: DefaultPositionScale,
		},
		BONE_CLASS_OTHER: {
			Order:         MULTIPLY_ORDER_NONE,
			PositionScale: DefaultPositionScale,
		},
	}
}

// PassthroughCorrectionTable は回転補正を行わない補正表を返す。
func PassthroughCorrectionTable() CorrectionTable {
	table := CorrectionTable{}
	for _, class := range AllBoneClasses() {
		table[class] = CorrectionRule{Order: MULTIPLY_ORDER_NONE, PositionScale: DefaultPositionScale}
	}
	return table
}

// NewPolicy はプリセット名から補正方針を生成する。
func NewPolicy(name PresetName) (Policy, error) {
	switch PresetName(strings.ToLower(strings.TrimSpace(string(name)))) {
	case PRESET_TUNED, "":
		return Policy{Table: TunedCorrectionTable(), RootMotion: ROOT_MOTION_UNIFORM}, nil
	case PRESET_PASSTHROUGH:
		return Policy{Table: PassthroughCorrectionTable(), RootMotion: ROOT_MOTION_VERTICAL_ONLY}, nil
	}
	return Policy{}, fmt.Errorf("補正プリセットが不正です: %s", name)
}

// DefaultPolicy は既定の補正方針を返す。
func DefaultPolicy() Policy {
	policy, _ := NewPolicy(PRESET_TUNED)
	return policy
}
