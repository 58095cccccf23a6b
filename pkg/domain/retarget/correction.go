// 指示: miu200521358
// Package retarget はボーン分類とトラック補正規則を提供する。
package retarget

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/text/cases"

	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/humanoid"
	"github.com/miu200521358/mu_vrm_retarget/pkg/domain/motion"
)

// BoneClass は補正規則を選ぶためのボーン分類。
type BoneClass string

const (
	BONE_CLASS_HIPS      BoneClass = "hips"
	BONE_CLASS_UPPER_LEG BoneClass = "upper_leg"
	BONE_CLASS_LOWER_LEG BoneClass = "lower_leg"
	BONE_CLASS_FOOT      BoneClass = "foot"
	BONE_CLASS_UPPER_ARM BoneClass = "upper_arm"
	BONE_CLASS_OTHER     BoneClass = "other"
)

// AllBoneClasses は分類の一覧を返す。
func AllBoneClasses() []BoneClass {
	return []BoneClass{
		BONE_CLASS_HIPS,
		BONE_CLASS_UPPER_LEG,
		BONE_CLASS_LOWER_LEG,
		BONE_CLASS_FOOT,
		BONE_CLASS_UPPER_ARM,
		BONE_CLASS_OTHER,
	}
}

// ParseBoneClass は文字列から分類を解決する。
func ParseBoneClass(value string) (BoneClass, error) {
	for _, class := range AllBoneClasses() {
		if strings.EqualFold(string(class), strings.TrimSpace(value)) {
			return class, nil
		}
	}
	return "", fmt.Errorf("ボーン分類が不正です: %s", value)
}

// IsLeg は脚系の分類かを返す。
func (c BoneClass) IsLeg() bool {
	return c == BONE_CLASS_UPPER_LEG || c == BONE_CLASS_LOWER_LEG || c == BONE_CLASS_FOOT
}

// ClassifyBone は正規化ボーン名を大文字小文字を無視した部分一致で分類する。
func ClassifyBone(name humanoid.BoneName) BoneClass {
	// Caser は状態を持つため呼び出し毎に生成する。
	folded := cases.Fold().String(name.String())
	switch {
	case strings.Contains(folded, "hips"):
		return BONE_CLASS_HIPS
	case strings.Contains(folded, "upperleg"):
		return BONE_CLASS_UPPER_LEG
	case strings.Contains(folded, "lowerleg"):
		return BONE_CLASS_LOWER_LEG
	case strings.Contains(folded, "foot"), strings.Contains(folded, "toe"):
		return BONE_CLASS_FOOT
	case strings.Contains(folded, "upperarm"):
		return BONE_CLASS_UPPER_ARM
	default:
		return BONE_CLASS_OTHER
	}
}

// MultiplyOrder はオフセット回転の乗算順序。
// pre は親(ワールド)座標系、post はボーンのローカル座標系での回転になる。
type MultiplyOrder string

const (
	MULTIPLY_ORDER_NONE MultiplyOrder = "none"
	MULTIPLY_ORDER_PRE  MultiplyOrder = "pre"
	MULTIPLY_ORDER_POST MultiplyOrder = "post"
)

// ParseMultiplyOrder は文字列から乗算順序を解決する。
func ParseMultiplyOrder(value string) (MultiplyOrder, error) {
	switch MultiplyOrder(strings.ToLower(strings.TrimSpace(value))) {
	case MULTIPLY_ORDER_NONE, "":
		return MULTIPLY_ORDER_NONE, nil
	case MULTIPLY_ORDER_PRE:
		return MULTIPLY_ORDER_PRE, nil
	case MULTIPLY_ORDER_POST:
		return MULTIPLY_ORDER_POST, nil
	}
	return "", fmt.Errorf("乗算順序が不正です: %s", value)
}

// AxisAngle は軸と角度(度)で表すオフセット回転。
type AxisAngle struct {
	Axis         mgl64.Vec3
	AngleDegrees float64
}

// CorrectionRule はボーン分類毎の補正規則。
type CorrectionRule struct {
	Order  MultiplyOrder
	Offset AxisAngle
	// MirrorBySide が有効な場合、名前に left を含まないボーンでは角度を反転する。
	MirrorBySide  bool
	Flip          [3]bool
	PositionScale float64
}

// OffsetQuat は対象ボーンに適用するオフセット回転を返す。
func (r CorrectionRule) OffsetQuat(name humanoid.BoneName) mgl64.Quat {
	if r.Order == MULTIPLY_ORDER_NONE || r.Order == "" {
		return mgl64.QuatIdent()
	}
	axisLength := r.Offset.Axis.Len()
	if axisLength == 0 || r.Offset.AngleDegrees == 0 {
		return mgl64.QuatIdent()
	}
	angle := mgl64.DegToRad(r.Offset.AngleDegrees)
	if r.MirrorBySide && !strings.Contains(cases.Fold().String(name.String()), "left") {
		angle = -angle
	}
	return mgl64.QuatRotate(angle, r.Offset.Axis.Mul(1/axisLength))
}

// CorrectionTable は分類毎の補正規則表。
type CorrectionTable map[BoneClass]CorrectionRule

// RootMotionPolicy はルート位置トラックの扱い。
type RootMotionPolicy string

const (
	// ROOT_MOTION_UNIFORM は3軸とも同じ倍率で縮尺する。
	ROOT_MOTION_UNIFORM RootMotionPolicy = "uniform"
	// ROOT_MOTION_VERTICAL_ONLY は水平成分を0にし、垂直成分だけ縮尺して残す。
	ROOT_MOTION_VERTICAL_ONLY RootMotionPolicy = "vertical_only"
)

// ParseRootMotionPolicy は文字列からルート移動方針を解決する。
func ParseRootMotionPolicy(value string) (RootMotionPolicy, error) {
	switch RootMotionPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case ROOT_MOTION_UNIFORM, "":
		return ROOT_MOTION_UNIFORM, nil
	case ROOT_MOTION_VERTICAL_ONLY:
		return ROOT_MOTION_VERTICAL_ONLY, nil
	}
	return "", fmt.Errorf("ルート移動方針が不正です: %s", value)
}

// DefaultPositionScale は元単位(cm)から先単位(m)への縮尺。
const DefaultPositionScale = 0.01

// identityRule は規則が見つからない場合の無補正規則。
var identityRule = CorrectionRule{Order: MULTIPLY_ORDER_NONE, PositionScale: 1.0}

// Policy はトラック補正全体の方針。
type Policy struct {
	Table        CorrectionTable
	RootMotion   RootMotionPolicy
	SwapLegSides bool
}

// RuleFor は分類に対応する規則を返す。未登録時は other、それも無ければ無補正。
func (p Policy) RuleFor(class BoneClass) CorrectionRule {
	if rule, ok := p.Table[class]; ok {
		return rule
	}
	if rule, ok := p.Table[BONE_CLASS_OTHER]; ok {
		return rule
	}
	return identityRule
}

// CorrectTrackValues はトラック値へ補正を適用した新しい配列を返す。
// 入力は変更せず、長さも変えない。末尾の半端な要素はそのまま残す。
func CorrectTrackValues(name humanoid.BoneName, prop motion.TrackProperty, values []float64, policy Policy) []float64 {
	out := make([]float64, len(values))
	copy(out, values)

	rule := policy.RuleFor(ClassifyBone(name))
	switch prop {
	case motion.TRACK_PROPERTY_POSITION:
		correctPositions(out, rule.PositionScale, name.IsRoot() && policy.RootMotion == ROOT_MOTION_VERTICAL_ONLY)
	case motion.TRACK_PROPERTY_QUATERNION:
		correctQuaternions(out, rule, rule.OffsetQuat(name))
	}
	return out
}

// correctPositions は位置値を縮尺する。verticalOnly の場合は X/Z を0にする。
func correctPositions(values []float64, scale float64, verticalOnly bool) {
	for i := 0; i+3 <= len(values); i += 3 {
		if verticalOnly {
			values[i] = 0.0
			values[i+1] *= scale
			values[i+2] = 0.0
			continue
		}
		values[i] *= scale
		values[i+1] *= scale
		values[i+2] *= scale
	}
}

// correctQuaternions は回転値(x,y,z,w)へオフセットと符号反転を適用する。
func correctQuaternions(values []float64, rule CorrectionRule, offset mgl64.Quat) {
	for i := 0; i+4 <= len(values); i += 4 {
		q := ApplyRotationRule(QuatFromValues(values[i:i+4]), rule, offset)
		values[i] = q.V[0]
		values[i+1] = q.V[1]
		values[i+2] = q.V[2]
		values[i+3] = q.W
	}
}

// ApplyRotationRule は1サンプルの回転へ規則を適用する。
func ApplyRotationRule(q mgl64.Quat, rule CorrectionRule, offset mgl64.Quat) mgl64.Quat {
	switch rule.Order {
	case MULTIPLY_ORDER_PRE:
		q = offset.Mul(q)
	case MULTIPLY_ORDER_POST:
		q = q.Mul(offset)
	}
	for axis := 0; axis < 3; axis++ {
		if rule.Flip[axis] {
			q.V[axis] = -q.V[axis]
		}
	}
	return q
}

// QuatFromValues は x,y,z,w 並びの4要素からクォータニオンを生成する。
func QuatFromValues(values []float64) mgl64.Quat {
	return mgl64.Quat{W: values[3], V: mgl64.Vec3{values[0], values[1], values[2]}}
}
